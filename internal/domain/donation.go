package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation is a recorded transfer from a donor to a campaign. Rows are never
// updated once inserted.
type Donation struct {
	ID            string
	CampaignID    int64
	DonorID       string
	DonorAddress  string
	Amount        decimal.Decimal
	TxHash        string
	CreatedAt     time.Time
	CampaignTitle string
}

// PendingStatus enumerates the lifecycle of a submitted chain transfer.
type PendingStatus string

const (
	PendingStatusPending   PendingStatus = "pending"
	PendingStatusConfirmed PendingStatus = "confirmed"
	PendingStatusFailed    PendingStatus = "failed"
)

// PendingDonation is a chain transaction that has been submitted by a donor
// but is not yet reflected in the campaign totals.
type PendingDonation struct {
	ID            string
	CampaignID    int64
	DonorID       string
	DonorAddress  string
	Amount        decimal.Decimal
	TxHash        string
	Status        PendingStatus
	FailureReason string
	Attempts      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AppliedDonation reports the campaign state after a donation was recorded.
type AppliedDonation struct {
	DonationID      string
	CampaignID      int64
	AmountCollected decimal.Decimal
}

// TotalsOf aggregates a list of donations.
func TotalsOf(donations []Donation) DonationTotals {
	totals := DonationTotals{Sum: decimal.Zero}
	for _, d := range donations {
		totals.Count++
		totals.Sum = totals.Sum.Add(d.Amount)
	}
	return totals
}
