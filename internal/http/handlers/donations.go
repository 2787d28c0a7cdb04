package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"blockfund/internal/chain"
	"blockfund/internal/domain"
	"blockfund/internal/funding"
	"blockfund/internal/reconcile"
)

type quoteDonationRequest struct {
	Amount funding.RawAmount `json:"amount"`
}

type createDonationRequest struct {
	Amount funding.RawAmount `json:"amount"`
	TxHash string            `json:"tx_hash"`
}

type quoteResponse struct {
	Amount    string    `json:"amount"`
	Wei       string    `json:"wei"`
	Remaining string    `json:"remaining"`
	Call      chainCall `json:"call"`
}

func (a *App) ListDonations(w http.ResponseWriter, r *http.Request) {
	id, ok := a.campaignIDParam(w, r)
	if !ok {
		return
	}
	donations, err := a.Donations.ListByCampaign(r.Context(), id)
	if err != nil {
		a.internal(w, r, err, "failed to load donations")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":  newDonationDTOs(donations),
		"donors": uniqueDonors(donations),
	})
}

// QuoteDonation sanitizes an amount and returns the transaction the donor's
// wallet has to sign.
func (a *App) QuoteDonation(w http.ResponseWriter, r *http.Request) {
	if a.Chain == nil {
		a.error(w, http.StatusServiceUnavailable, "chain_unavailable", "chain endpoint not configured")
		return
	}
	campaign, ok := a.loadCampaign(w, r)
	if !ok {
		return
	}
	if !a.acceptsDonations(w, campaign) {
		return
	}
	var req quoteDonationRequest
	if !a.decode(w, r, &req) {
		return
	}
	remaining := funding.Remaining(campaign.AmountCollected, campaign.Target)
	amount, ok := a.sanitizeAmount(w, string(req.Amount), remaining)
	if !ok {
		return
	}
	data, err := a.Chain.Contract().PackDonate(*campaign.ChainIndex)
	if err != nil {
		a.internal(w, r, err, "failed to encode donation call")
		return
	}
	a.json(w, http.StatusOK, quoteResponse{
		Amount:    amount.String(),
		Wei:       amount.Wei.String(),
		Remaining: remaining.String(),
		Call: chainCall{
			ChainID: a.Chain.ChainID(),
			To:      a.Chain.Contract().Address.Hex(),
			Data:    hexutil.Encode(data),
			Value:   hexutil.EncodeBig(amount.Wei),
		},
	})
}

// CreateDonation accepts a mined or broadcast donation transaction. The
// donation is recorded once the chain confirms it; until then 202 is
// returned and the sweep keeps checking.
func (a *App) CreateDonation(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if profile.WalletAddress == "" {
		a.error(w, http.StatusConflict, "wallet_not_linked", "link a wallet before donating")
		return
	}
	campaign, ok := a.loadCampaign(w, r)
	if !ok {
		return
	}
	if !a.acceptsDonations(w, campaign) {
		return
	}
	var req createDonationRequest
	if !a.decode(w, r, &req) {
		return
	}
	amount, ok := a.sanitizeAmount(w, string(req.Amount), funding.Remaining(campaign.AmountCollected, campaign.Target))
	if !ok {
		return
	}
	hash, err := chain.ParseTxHash(req.TxHash)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "tx_hash must be a 32 byte hex string")
		return
	}
	if a.Reconciler == nil {
		a.error(w, http.StatusServiceUnavailable, "chain_unavailable", "chain endpoint not configured")
		return
	}

	pending := &domain.PendingDonation{
		CampaignID:   campaign.ID,
		DonorID:      profile.ID,
		DonorAddress: strings.ToLower(profile.WalletAddress),
		Amount:       amount.Value,
		TxHash:       hash.Hex(),
	}
	applied, err := a.Reconciler.Submit(r.Context(), pending)
	switch {
	case err == nil:
		a.json(w, http.StatusCreated, map[string]any{
			"status":           domain.PendingStatusConfirmed,
			"donation_id":      applied.DonationID,
			"tx_hash":          pending.TxHash,
			"amount_collected": applied.AmountCollected.String(),
		})
	case errors.Is(err, chain.ErrPending):
		a.json(w, http.StatusAccepted, map[string]any{
			"status":  domain.PendingStatusPending,
			"tx_hash": pending.TxHash,
		})
	case errors.Is(err, chain.ErrMismatch):
		a.error(w, http.StatusUnprocessableEntity, "tx_mismatch", err.Error())
	case errors.Is(err, domain.ErrDuplicateOperation):
		a.error(w, http.StatusConflict, "duplicate_tx", "transaction already submitted")
	case errors.Is(err, reconcile.ErrChainUnavailable):
		a.error(w, http.StatusServiceUnavailable, "chain_unavailable", "chain endpoint not configured")
	case errors.Is(err, chain.ErrRPC):
		a.Logger.Warn().Err(err).Str("tx", pending.TxHash).Msg("chain lookup failed")
		a.error(w, http.StatusBadGateway, "chain_error", "chain node request failed")
	default:
		a.internal(w, r, err, "failed to record donation")
	}
}

func (a *App) acceptsDonations(w http.ResponseWriter, c *domain.Campaign) bool {
	if !funding.IsActive(c.Deadline, a.now()) {
		a.error(w, http.StatusConflict, "campaign_closed", "campaign deadline has passed")
		return false
	}
	if c.ChainIndex == nil {
		a.error(w, http.StatusConflict, "not_on_chain", "campaign is not registered on chain")
		return false
	}
	return true
}

func (a *App) sanitizeAmount(w http.ResponseWriter, raw string, remaining decimal.Decimal) (funding.DonationAmount, bool) {
	amount, err := funding.SanitizeDonationAmount(raw, remaining)
	switch {
	case err == nil:
		return amount, true
	case errors.Is(err, domain.ErrExceedsRemaining):
		a.error(w, http.StatusUnprocessableEntity, "exceeds_remaining", err.Error())
	default:
		a.error(w, http.StatusUnprocessableEntity, "invalid_amount", err.Error())
	}
	return funding.DonationAmount{}, false
}
