package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign is a fundraising listing mirrored from the donation contract.
type Campaign struct {
	ID              int64
	OwnerID         string
	OwnerAddress    string
	CreatorName     string
	Title           string
	Description     string
	Target          decimal.Decimal
	Deadline        time.Time
	AmountCollected decimal.Decimal
	ImageURL        string
	Documents       []string
	Videos          []string
	ChainIndex      *int64
	IsVerified      bool
	VerifiedBy      *string
	VerifiedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CampaignTab selects a listing tab.
type CampaignTab string

const (
	TabAll       CampaignTab = "all"
	TabVerified  CampaignTab = "verified"
	TabOngoing   CampaignTab = "ongoing"
	TabCompleted CampaignTab = "completed"
)

// Valid reports whether t names a known tab.
func (t CampaignTab) Valid() bool {
	switch t {
	case TabAll, TabVerified, TabOngoing, TabCompleted:
		return true
	}
	return false
}

// Matches reports whether c belongs on tab t at time now. Ongoing campaigns
// have a deadline strictly after now.
func (t CampaignTab) Matches(c Campaign, now time.Time) bool {
	switch t {
	case TabVerified:
		return c.IsVerified
	case TabOngoing:
		return c.Deadline.After(now)
	case TabCompleted:
		return !c.Deadline.After(now)
	default:
		return true
	}
}

// CampaignFilter narrows campaign listings. Now is the reference time for
// the ongoing and completed tabs; an empty Tab lists everything.
type CampaignFilter struct {
	Search  string
	OwnerID string
	Tab     CampaignTab
	Now     time.Time
	Limit   int
}

// NewCampaign carries the validated fields required to create a campaign.
type NewCampaign struct {
	OwnerID      string
	OwnerAddress string
	CreatorName  string
	Title        string
	Description  string
	Target       decimal.Decimal
	Deadline     time.Time
	ImageURL     string
	Documents    []string
	Videos       []string
	ChainIndex   *int64
}
