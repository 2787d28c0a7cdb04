package domain

import "time"

// VerificationVote is a donor's or admin's opinion on a campaign's legitimacy.
type VerificationVote struct {
	CampaignID int64
	VoterID    string
	Verdict    bool
	CreatedAt  time.Time
}
