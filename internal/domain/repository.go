package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CampaignRepository defines access methods for campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, campaign NewCampaign) (*Campaign, error)
	GetByID(ctx context.Context, id int64) (*Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]Campaign, error)
	MarkVerified(ctx context.Context, id int64, verifiedBy string) (*Campaign, error)
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	ListByCampaign(ctx context.Context, campaignID int64) ([]Donation, error)
	ListByDonor(ctx context.Context, donorID string) ([]Donation, error)
	HasDonated(ctx context.Context, campaignID int64, donorID string) (bool, error)
}

// PendingDonationRepository tracks chain transfers until they reach the mirror.
type PendingDonationRepository interface {
	Create(ctx context.Context, pending *PendingDonation) error
	GetByTxHash(ctx context.Context, txHash string) (*PendingDonation, error)
	ListPending(ctx context.Context, limit int) ([]PendingDonation, error)
	MarkFailed(ctx context.Context, txHash, reason string) error
	TouchAttempt(ctx context.Context, txHash string) error
	// Apply records the donation and increments the campaign total in a
	// single statement. It returns ErrDuplicateOperation when the transfer
	// was already applied.
	Apply(ctx context.Context, txHash string) (*AppliedDonation, error)
}

// VoteRepository persists verification votes.
type VoteRepository interface {
	Upsert(ctx context.Context, vote VerificationVote) error
	ListByCampaign(ctx context.Context, campaignID int64) ([]VerificationVote, error)
}

// ProfileRepository defines access methods for profiles.
type ProfileRepository interface {
	CreateWithPassword(ctx context.Context, email, passwordHash, displayName string) (*Profile, error)
	UpsertByGoogleSub(ctx context.Context, sub, email, displayName string) (*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	LinkWallet(ctx context.Context, id, address string) error
	SetFlags(ctx context.Context, id string, verifiedCreator, admin *bool) (*Profile, error)
}

// DonationTotals is the aggregate of a donor's confirmed donations.
type DonationTotals struct {
	Count int
	Sum   decimal.Decimal
}
