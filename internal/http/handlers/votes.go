package handlers

import (
	"net/http"
	"strconv"

	"blockfund/internal/domain"
	"blockfund/internal/funding"
	"blockfund/internal/metrics"
	"blockfund/internal/realtime"
)

type castVoteRequest struct {
	Verdict *bool `json:"verdict"`
}

func (a *App) ListVotes(w http.ResponseWriter, r *http.Request) {
	id, ok := a.campaignIDParam(w, r)
	if !ok {
		return
	}
	votes, err := a.Votes.ListByCampaign(r.Context(), id)
	if err != nil {
		a.internal(w, r, err, "failed to load votes")
		return
	}
	a.json(w, http.StatusOK, funding.TallyVotes(votes))
}

// CastVote records the caller's verdict. Donors of the campaign and campaign
// verifiers may vote; a repeated vote replaces the earlier one. When the
// community tally turns positive the campaign is marked verified.
func (a *App) CastVote(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	campaign, ok := a.loadCampaign(w, r)
	if !ok {
		return
	}
	var req castVoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Verdict == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "verdict is required")
		return
	}
	if !profile.CanVerifyCampaigns(a.SuperVerifiedDomain) {
		donated, err := a.Donations.HasDonated(r.Context(), campaign.ID, profile.ID)
		if err != nil {
			a.internal(w, r, err, "failed to check donations")
			return
		}
		if !donated {
			a.error(w, http.StatusForbidden, "not_a_donor", "only donors can vote on this campaign")
			return
		}
	}

	vote := domain.VerificationVote{CampaignID: campaign.ID, VoterID: profile.ID, Verdict: *req.Verdict}
	if err := a.Votes.Upsert(r.Context(), vote); err != nil {
		a.internal(w, r, err, "failed to record vote")
		return
	}
	metrics.VotesCastTotal.WithLabelValues(strconv.FormatBool(vote.Verdict)).Inc()
	rowID := strconv.FormatInt(campaign.ID, 10)
	a.publish(r, realtime.TableVerificationVotes, realtime.ChangeUpdate, rowID)

	votes, err := a.Votes.ListByCampaign(r.Context(), campaign.ID)
	if err != nil {
		a.internal(w, r, err, "failed to load votes")
		return
	}
	tally := funding.TallyVotes(votes)
	if tally.Verified && !campaign.IsVerified {
		updated, err := a.Campaigns.MarkVerified(r.Context(), campaign.ID, communityVerifier)
		if err != nil {
			a.internal(w, r, err, "failed to verify campaign")
			return
		}
		campaign = updated
		a.Logger.Info().Int64("campaign_id", campaign.ID).Int("votes", tally.Total).Msg("campaign verified by community")
		a.publish(r, realtime.TableCampaigns, realtime.ChangeUpdate, rowID)
	}
	a.json(w, http.StatusOK, map[string]any{
		"tally":       tally,
		"is_verified": campaign.IsVerified,
	})
}

// communityVerifier is recorded as verified_by when votes verify a campaign.
const communityVerifier = "community"
