package funding

import "blockfund/internal/domain"

// Tally summarizes the verification votes cast on a campaign.
type Tally struct {
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Total    int     `json:"total"`
	Ratio    float64 `json:"ratio"`
	Verified bool    `json:"verified"`
}

// CheckCampaignVerification reports whether at least half of the votes are
// positive. Ties count as verified; a campaign with no votes is unverified.
// There is no minimum sample size, so a single vote decides.
func CheckCampaignVerification(votes []domain.VerificationVote) bool {
	if len(votes) == 0 {
		return false
	}
	positive := 0
	for _, v := range votes {
		if v.Verdict {
			positive++
		}
	}
	return positive*2 >= len(votes)
}

// TallyVotes counts votes and applies CheckCampaignVerification.
func TallyVotes(votes []domain.VerificationVote) Tally {
	t := Tally{Total: len(votes)}
	for _, v := range votes {
		if v.Verdict {
			t.Positive++
		} else {
			t.Negative++
		}
	}
	if t.Total > 0 {
		t.Ratio = float64(t.Positive) / float64(t.Total)
	}
	t.Verified = CheckCampaignVerification(votes)
	return t
}
