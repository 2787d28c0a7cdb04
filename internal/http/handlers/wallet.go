package handlers

import (
	"errors"
	"net/http"

	"blockfund/internal/chain"
	"blockfund/internal/domain"
	"blockfund/internal/funding"
	"blockfund/internal/wallet"
)

type walletChallengeRequest struct {
	Address string `json:"address"`
}

type walletVerifyRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

func (a *App) WalletChallenge(w http.ResponseWriter, r *http.Request) {
	var req walletChallengeRequest
	if !a.decode(w, r, &req) {
		return
	}
	ch, err := a.Wallets.Challenge(r.Context(), a.currentUserID(r), trimmed(req.Address))
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidAddress) {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid wallet address")
			return
		}
		a.internal(w, r, err, "failed to issue challenge")
		return
	}
	a.json(w, http.StatusOK, ch)
}

func (a *App) WalletVerify(w http.ResponseWriter, r *http.Request) {
	var req walletVerifyRequest
	if !a.decode(w, r, &req) {
		return
	}
	address, err := a.Wallets.Verify(r.Context(), a.currentUserID(r), trimmed(req.Address), trimmed(req.Signature))
	switch {
	case err == nil:
	case errors.Is(err, wallet.ErrInvalidAddress):
		a.error(w, http.StatusBadRequest, "bad_request", "invalid wallet address")
		return
	case errors.Is(err, wallet.ErrChallengeExpired):
		a.error(w, http.StatusUnauthorized, "challenge_expired", "challenge expired or unknown")
		return
	case errors.Is(err, chain.ErrInvalidSignature):
		a.error(w, http.StatusUnauthorized, "bad_signature", "signature does not match address")
		return
	case errors.Is(err, domain.ErrDuplicateOperation):
		a.error(w, http.StatusConflict, "wallet_taken", "wallet already linked to another profile")
		return
	default:
		a.internal(w, r, err, "failed to link wallet")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"address": address})
}

// WalletInfo reports the linked address with its chain balance.
func (a *App) WalletInfo(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if profile.WalletAddress == "" {
		a.error(w, http.StatusNotFound, "wallet_not_linked", "no wallet linked")
		return
	}
	resp := map[string]any{
		"address":       chain.ChecksumAddress(profile.WalletAddress),
		"address_short": funding.TruncateAddress(chain.ChecksumAddress(profile.WalletAddress)),
	}
	if a.Chain == nil {
		a.json(w, http.StatusOK, resp)
		return
	}
	resp["chain_id"] = a.Chain.ChainID()
	balance, err := a.Chain.Balance(r.Context(), profile.WalletAddress)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("wallet balance lookup failed")
		a.error(w, http.StatusBadGateway, "chain_error", "failed to read balance")
		return
	}
	resp["balance"] = balance.String()
	resp["balance_display"] = funding.FormatEthAmount(balance.String())
	verified, err := a.Chain.IsVerifiedCreator(r.Context(), profile.WalletAddress)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("verified creator lookup failed")
	} else {
		resp["chain_verified_creator"] = verified
	}
	a.json(w, http.StatusOK, resp)
}
