package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blockfund/internal/domain"
	"blockfund/internal/funding"
)

func castVote(t *testing.T, app *App, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := withURLParam(asUser(jsonRequest(t, http.MethodPost, "/v1/campaigns/1/votes", body), userID), "id", "1")
	app.CastVote(rr, req)
	return rr
}

func TestCastVote_OnlyDonorsOrVerifiers(t *testing.T) {
	app, deps := newTestApp(t)
	deps.campaigns.put(domain.Campaign{ID: 1, Target: amount("1"), AmountCollected: amount("0"), Deadline: testNow.Add(time.Hour)})
	stranger := deps.profiles.add(domain.Profile{Email: "stranger@example.com"})
	admin := deps.profiles.add(domain.Profile{Email: "admin@example.com", IsAdmin: true})

	if rr := castVote(t, app, stranger.ID, map[string]any{"verdict": true}); rr.Code != http.StatusForbidden {
		t.Fatalf("stranger status = %d, want 403", rr.Code)
	}
	if rr := castVote(t, app, admin.ID, map[string]any{"verdict": false}); rr.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if rr := castVote(t, app, admin.ID, map[string]any{}); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing verdict status = %d, want 400", rr.Code)
	}
}

func TestCastVote_TieVerifiesCampaign(t *testing.T) {
	app, deps := newTestApp(t)
	deps.campaigns.put(domain.Campaign{ID: 1, Target: amount("1"), AmountCollected: amount("0"), Deadline: testNow.Add(time.Hour)})
	a := deps.profiles.add(domain.Profile{Email: "a@example.com"})
	b := deps.profiles.add(domain.Profile{Email: "b@example.com"})
	deps.donations.items = []domain.Donation{
		{ID: "d1", CampaignID: 1, DonorID: a.ID, Amount: amount("0.1")},
		{ID: "d2", CampaignID: 1, DonorID: b.ID, Amount: amount("0.1")},
	}

	rr := castVote(t, app, a.ID, map[string]any{"verdict": false})
	if rr.Code != http.StatusOK {
		t.Fatalf("first vote status = %d: %s", rr.Code, rr.Body.String())
	}
	var first struct {
		Tally      funding.Tally `json:"tally"`
		IsVerified bool          `json:"is_verified"`
	}
	decodeBody(t, rr, &first)
	if first.Tally.Verified || first.IsVerified {
		t.Fatalf("single negative vote must not verify: %+v", first)
	}

	rr = castVote(t, app, b.ID, map[string]any{"verdict": true})
	var second struct {
		Tally      funding.Tally `json:"tally"`
		IsVerified bool          `json:"is_verified"`
	}
	decodeBody(t, rr, &second)
	if second.Tally.Total != 2 || !second.Tally.Verified || !second.IsVerified {
		t.Fatalf("tie should verify: %+v", second)
	}
	c, _ := deps.campaigns.GetByID(t.Context(), 1)
	if c.VerifiedBy == nil || *c.VerifiedBy != communityVerifier {
		t.Fatalf("verified_by = %v, want %q", c.VerifiedBy, communityVerifier)
	}
}

func TestCastVote_ReplacesEarlierVote(t *testing.T) {
	app, deps := newTestApp(t)
	deps.campaigns.put(domain.Campaign{ID: 1, Target: amount("1"), AmountCollected: amount("0"), Deadline: testNow.Add(time.Hour)})
	admin := deps.profiles.add(domain.Profile{Email: "admin@example.com", IsAdmin: true})

	castVote(t, app, admin.ID, map[string]any{"verdict": false})
	castVote(t, app, admin.ID, map[string]any{"verdict": true})

	rr := httptest.NewRecorder()
	app.ListVotes(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/v1/campaigns/1/votes", nil), "id", "1"))
	var tally funding.Tally
	decodeBody(t, rr, &tally)
	if tally.Total != 1 || tally.Positive != 1 {
		t.Fatalf("tally = %+v, want one positive vote", tally)
	}
}

func TestListVotes_EmptyIsUnverified(t *testing.T) {
	app, _ := newTestApp(t)
	rr := httptest.NewRecorder()
	app.ListVotes(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/v1/campaigns/1/votes", nil), "id", "1"))
	var tally funding.Tally
	decodeBody(t, rr, &tally)
	if tally.Verified || tally.Total != 0 {
		t.Fatalf("tally = %+v, want empty and unverified", tally)
	}
}
