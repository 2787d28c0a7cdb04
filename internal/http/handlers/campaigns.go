package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"blockfund/internal/domain"
	"blockfund/internal/funding"
	"blockfund/internal/realtime"
	"blockfund/pkg/zip"
)

const (
	maxTitleLength       = 120
	maxDescriptionLength = 10000
	maxAttachments       = 5
)

type createCampaignRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Target      funding.RawAmount `json:"target"`
	Deadline    time.Time         `json:"deadline"`
	ImageURL    string            `json:"image"`
	Documents   []string          `json:"documents"`
	Videos      []string          `json:"videos"`
	ChainIndex  *int64            `json:"chain_index"`
}

type chainCall struct {
	ChainID int64  `json:"chain_id"`
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value,omitempty"`
}

func (a *App) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tab := domain.CampaignTab(q.Get("tab"))
	if tab == "" {
		tab = domain.TabAll
	}
	if !tab.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "tab must be all, verified, ongoing or completed")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	now, locale := a.now(), a.locale(r)
	campaigns, err := a.Campaigns.List(r.Context(), domain.CampaignFilter{
		Search: trimmed(q.Get("q")),
		Tab:    tab,
		Now:    now,
		Limit:  limit,
	})
	if err != nil {
		a.internal(w, r, err, "failed to load campaigns")
		return
	}
	items := make([]campaignDTO, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, newCampaignDTO(c, now, locale))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, ok := a.loadCampaign(w, r)
	if !ok {
		return
	}
	donations, err := a.Donations.ListByCampaign(r.Context(), campaign.ID)
	if err != nil {
		a.internal(w, r, err, "failed to load donations")
		return
	}
	votes, err := a.Votes.ListByCampaign(r.Context(), campaign.ID)
	if err != nil {
		a.internal(w, r, err, "failed to load votes")
		return
	}
	tally := funding.TallyVotes(votes)
	resp := map[string]any{
		"campaign":           newCampaignDTO(*campaign, a.now(), a.locale(r)),
		"donations":          newDonationDTOs(donations),
		"donors":             uniqueDonors(donations),
		"tally":              tally,
		"community_verified": tally.Verified,
	}
	if a.Chain != nil {
		resp["contract"] = a.Chain.Contract().Address.Hex()
		resp["chain_id"] = a.Chain.ChainID()
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if !a.canCreate(r.Context(), profile) {
		a.error(w, http.StatusForbidden, "not_verified_creator", "only verified creators can create campaigns")
		return
	}
	if profile.WalletAddress == "" {
		a.error(w, http.StatusConflict, "wallet_not_linked", "link a wallet before creating a campaign")
		return
	}
	var req createCampaignRequest
	if !a.decode(w, r, &req) {
		return
	}
	nc, fields := a.validateCampaign(req, profile)
	if len(fields) > 0 {
		a.invalid(w, fields)
		return
	}
	campaign, err := a.Campaigns.Create(r.Context(), nc)
	if err != nil {
		a.internal(w, r, err, "failed to create campaign")
		return
	}
	a.Logger.Info().Int64("campaign_id", campaign.ID).Str("owner_id", profile.ID).Msg("campaign created")
	a.publish(r, realtime.TableCampaigns, realtime.ChangeInsert, strconv.FormatInt(campaign.ID, 10))
	a.json(w, http.StatusCreated, newCampaignDTO(*campaign, a.now(), a.locale(r)))
}

// canCreate accepts profile flags first and falls back to the contract's
// verified creator registry for the linked wallet.
func (a *App) canCreate(ctx context.Context, p *domain.Profile) bool {
	if p.CanCreateCampaigns(a.SuperVerifiedDomain) {
		return true
	}
	if a.Chain == nil || p.WalletAddress == "" {
		return false
	}
	ok, err := a.Chain.IsVerifiedCreator(ctx, p.WalletAddress)
	if err != nil {
		a.Logger.Warn().Err(err).Str("profile_id", p.ID).Msg("verified creator lookup failed")
		return false
	}
	return ok
}

func (a *App) validateCampaign(req createCampaignRequest, p *domain.Profile) (domain.NewCampaign, map[string]string) {
	fields := map[string]string{}
	title := a.strict.Sanitize(trimmed(req.Title))
	switch {
	case title == "":
		fields["title"] = "required"
	case utf8.RuneCountInString(title) > maxTitleLength:
		fields["title"] = fmt.Sprintf("at most %d characters", maxTitleLength)
	}
	description := a.sanitizer.Sanitize(trimmed(req.Description))
	switch {
	case description == "":
		fields["description"] = "required"
	case utf8.RuneCountInString(description) > maxDescriptionLength:
		fields["description"] = fmt.Sprintf("at most %d characters", maxDescriptionLength)
	}
	target, err := funding.ParseAmount(string(req.Target))
	switch {
	case err != nil || !target.IsPositive():
		fields["target"] = "must be a positive amount"
	case !target.Truncate(funding.WeiDecimals).Equal(target):
		fields["target"] = "at most 18 decimal places"
	}
	if req.Deadline.IsZero() || !req.Deadline.After(a.now()) {
		fields["deadline"] = "must be in the future"
	}
	if !isHTTPURL(req.ImageURL) {
		fields["image"] = "required"
	}
	if msg := checkAttachments(req.Documents); msg != "" {
		fields["documents"] = msg
	}
	if msg := checkAttachments(req.Videos); msg != "" {
		fields["videos"] = msg
	}
	if req.ChainIndex != nil && *req.ChainIndex < 0 {
		fields["chain_index"] = "must not be negative"
	}

	creator := p.DisplayName
	if creator == "" {
		creator = p.Email
	}
	return domain.NewCampaign{
		OwnerID:      p.ID,
		OwnerAddress: p.WalletAddress,
		CreatorName:  creator,
		Title:        title,
		Description:  description,
		Target:       target,
		Deadline:     req.Deadline.UTC(),
		ImageURL:     trimmed(req.ImageURL),
		Documents:    req.Documents,
		Videos:       req.Videos,
		ChainIndex:   req.ChainIndex,
	}, fields
}

func checkAttachments(urls []string) string {
	if len(urls) > maxAttachments {
		return fmt.Sprintf("at most %d files", maxAttachments)
	}
	for _, u := range urls {
		if !isHTTPURL(u) {
			return "must be uploaded file urls"
		}
	}
	return ""
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(trimmed(raw))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (a *App) VerifyCampaign(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	if !profile.CanVerifyCampaigns(a.SuperVerifiedDomain) {
		a.error(w, http.StatusForbidden, "forbidden", "you do not have permission to verify campaigns")
		return
	}
	id, ok := a.campaignIDParam(w, r)
	if !ok {
		return
	}
	verifier := profile.WalletAddress
	if verifier == "" {
		verifier = profile.Email
	}
	campaign, err := a.Campaigns.MarkVerified(r.Context(), id, verifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "campaign not found")
			return
		}
		a.internal(w, r, err, "failed to verify campaign")
		return
	}
	a.Logger.Info().Int64("campaign_id", id).Str("verified_by", verifier).Msg("campaign verified")
	a.publish(r, realtime.TableCampaigns, realtime.ChangeUpdate, strconv.FormatInt(id, 10))

	resp := map[string]any{"campaign": newCampaignDTO(*campaign, a.now(), a.locale(r))}
	// The on-chain flag is set by the verifier's own wallet.
	if a.Chain != nil && campaign.ChainIndex != nil {
		data, err := a.Chain.Contract().PackVerify(*campaign.ChainIndex)
		if err == nil {
			resp["chain_call"] = chainCall{
				ChainID: a.Chain.ChainID(),
				To:      a.Chain.Contract().Address.Hex(),
				Data:    hexutil.Encode(data),
			}
		}
	}
	a.json(w, http.StatusOK, resp)
}

// ExportCampaign returns a zip of the campaign record and its donations.
// Only the owner and admins may export.
func (a *App) ExportCampaign(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	campaign, ok := a.loadCampaign(w, r)
	if !ok {
		return
	}
	if campaign.OwnerID != profile.ID && !profile.IsAdmin {
		a.error(w, http.StatusForbidden, "forbidden", "only the campaign owner can export")
		return
	}
	donations, err := a.Donations.ListByCampaign(r.Context(), campaign.ID)
	if err != nil {
		a.internal(w, r, err, "failed to load donations")
		return
	}
	campaignJSON, err := json.MarshalIndent(newCampaignDTO(*campaign, a.now(), a.locale(r)), "", "  ")
	if err != nil {
		a.internal(w, r, err, "failed to encode campaign")
		return
	}
	csvData, err := donationsCSV(donations)
	if err != nil {
		a.internal(w, r, err, "failed to encode donations")
		return
	}
	archive, err := zip.Archive([]zip.Entry{
		{Name: "campaign.json", Data: campaignJSON, Modified: campaign.UpdatedAt},
		{Name: "donations.csv", Data: csvData, Modified: a.now()},
	})
	if err != nil {
		a.internal(w, r, err, "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="campaign-%d.zip"`, campaign.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func donationsCSV(donations []domain.Donation) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write([]string{"id", "donor_address", "amount", "tx_hash", "created_at"}); err != nil {
		return nil, err
	}
	for _, d := range donations {
		record := []string{d.ID, d.DonorAddress, d.Amount.String(), d.TxHash, d.CreatedAt.UTC().Format(time.RFC3339)}
		if err := cw.Write(record); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}
