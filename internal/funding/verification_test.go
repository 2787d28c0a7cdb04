package funding

import (
	"testing"

	"blockfund/internal/domain"
)

func votes(verdicts ...bool) []domain.VerificationVote {
	out := make([]domain.VerificationVote, 0, len(verdicts))
	for i, v := range verdicts {
		out = append(out, domain.VerificationVote{CampaignID: 1, VoterID: string(rune('a' + i)), Verdict: v})
	}
	return out
}

func TestCheckCampaignVerification(t *testing.T) {
	tests := []struct {
		name  string
		votes []domain.VerificationVote
		want  bool
	}{
		{name: "no votes", votes: nil, want: false},
		{name: "single positive", votes: votes(true), want: true},
		{name: "single negative", votes: votes(false), want: false},
		{name: "tie counts verified", votes: votes(true, false), want: true},
		{name: "one of three", votes: votes(false, false, true), want: false},
		{name: "two of three", votes: votes(true, false, true), want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckCampaignVerification(tc.votes); got != tc.want {
				t.Fatalf("CheckCampaignVerification() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTallyVotes(t *testing.T) {
	tally := TallyVotes(votes(true, false, true, true))
	if tally.Positive != 3 || tally.Negative != 1 || tally.Total != 4 {
		t.Fatalf("unexpected counts: %+v", tally)
	}
	if tally.Ratio != 0.75 {
		t.Fatalf("Ratio = %v, want 0.75", tally.Ratio)
	}
	if !tally.Verified {
		t.Fatalf("expected verified tally")
	}

	empty := TallyVotes(nil)
	if empty.Verified || empty.Ratio != 0 || empty.Total != 0 {
		t.Fatalf("unexpected empty tally: %+v", empty)
	}
}
