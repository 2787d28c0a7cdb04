package handlers

import (
	"strings"
	"time"

	"blockfund/internal/chain"
	"blockfund/internal/domain"
	"blockfund/internal/funding"
)

type campaignDTO struct {
	ID               int64      `json:"id"`
	OwnerID          string     `json:"owner_id"`
	Owner            string     `json:"owner"`
	OwnerShort       string     `json:"owner_short"`
	CreatorName      string     `json:"creator_name"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Target           string     `json:"target"`
	AmountCollected  string     `json:"amount_collected"`
	Remaining        string     `json:"remaining"`
	Progress         float64    `json:"progress"`
	CollectedDisplay string     `json:"collected_display"`
	TargetDisplay    string     `json:"target_display"`
	Deadline         time.Time  `json:"deadline"`
	TimeRemaining    string     `json:"time_remaining"`
	Active           bool       `json:"active"`
	Completed        bool       `json:"completed"`
	ImageURL         string     `json:"image"`
	Documents        []string   `json:"documents"`
	Videos           []string   `json:"videos"`
	ChainIndex       *int64     `json:"chain_index"`
	IsVerified       bool       `json:"is_verified"`
	VerifiedBy       *string    `json:"verified_by,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func newCampaignDTO(c domain.Campaign, now time.Time, locale string) campaignDTO {
	docs := c.Documents
	if docs == nil {
		docs = []string{}
	}
	videos := c.Videos
	if videos == nil {
		videos = []string{}
	}
	owner := chain.ChecksumAddress(c.OwnerAddress)
	return campaignDTO{
		ID:               c.ID,
		OwnerID:          c.OwnerID,
		Owner:            owner,
		OwnerShort:       funding.TruncateAddress(owner),
		CreatorName:      c.CreatorName,
		Title:            c.Title,
		Description:      c.Description,
		Target:           c.Target.String(),
		AmountCollected:  c.AmountCollected.String(),
		Remaining:        funding.Remaining(c.AmountCollected, c.Target).String(),
		Progress:         funding.Progress(c.AmountCollected, c.Target),
		CollectedDisplay: funding.FormatEthAmount(c.AmountCollected.String()),
		TargetDisplay:    funding.FormatEthAmount(c.Target.String()),
		Deadline:         c.Deadline,
		TimeRemaining:    funding.TimeRemaining(c.Deadline, now, locale),
		Active:           funding.IsActive(c.Deadline, now),
		Completed:        funding.IsCompleted(c.AmountCollected, c.Target, c.Deadline, now),
		ImageURL:         c.ImageURL,
		Documents:        docs,
		Videos:           videos,
		ChainIndex:       c.ChainIndex,
		IsVerified:       c.IsVerified,
		VerifiedBy:       c.VerifiedBy,
		VerifiedAt:       c.VerifiedAt,
		CreatedAt:        c.CreatedAt,
	}
}

type donationDTO struct {
	ID            string    `json:"id"`
	CampaignID    int64     `json:"campaign_id"`
	CampaignTitle string    `json:"campaign_title,omitempty"`
	DonorID       string    `json:"donor_id"`
	Donor         string    `json:"donor"`
	DonorShort    string    `json:"donor_short"`
	Amount        string    `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	TxHash        string    `json:"tx_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

func newDonationDTO(d domain.Donation) donationDTO {
	donor := chain.ChecksumAddress(d.DonorAddress)
	return donationDTO{
		ID:            d.ID,
		CampaignID:    d.CampaignID,
		CampaignTitle: d.CampaignTitle,
		DonorID:       d.DonorID,
		Donor:         donor,
		DonorShort:    funding.TruncateAddress(donor),
		Amount:        d.Amount.String(),
		AmountDisplay: funding.FormatEthAmount(d.Amount.String()),
		TxHash:        d.TxHash,
		CreatedAt:     d.CreatedAt,
	}
}

func newDonationDTOs(ds []domain.Donation) []donationDTO {
	out := make([]donationDTO, 0, len(ds))
	for _, d := range ds {
		out = append(out, newDonationDTO(d))
	}
	return out
}

// uniqueDonors lists donor addresses in first-donation order.
func uniqueDonors(ds []domain.Donation) []string {
	seen := make(map[string]struct{}, len(ds))
	donors := make([]string, 0, len(ds))
	for i := len(ds) - 1; i >= 0; i-- {
		addr := strings.ToLower(ds[i].DonorAddress)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		donors = append(donors, chain.ChecksumAddress(ds[i].DonorAddress))
	}
	return donors
}

type profileDTO struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	DisplayName       string    `json:"display_name"`
	Provider          string    `json:"provider"`
	WalletAddress     string    `json:"wallet_address,omitempty"`
	IsAdmin           bool      `json:"is_admin"`
	IsVerifiedCreator bool      `json:"is_verified_creator"`
	EmailVerified     bool      `json:"email_verified"`
	IsSuperVerified   bool      `json:"is_super_verified"`
	CanCreate         bool      `json:"can_create_campaigns"`
	CanVerify         bool      `json:"can_verify_campaigns"`
	CreatedAt         time.Time `json:"created_at"`
}

func (a *App) newProfileDTO(p domain.Profile) profileDTO {
	walletAddress := ""
	if p.WalletAddress != "" {
		walletAddress = chain.ChecksumAddress(p.WalletAddress)
	}
	return profileDTO{
		ID:                p.ID,
		Email:             p.Email,
		DisplayName:       p.DisplayName,
		Provider:          string(p.Provider),
		WalletAddress:     walletAddress,
		IsAdmin:           p.IsAdmin,
		IsVerifiedCreator: p.IsVerifiedCreator || p.IsSuperVerified(a.SuperVerifiedDomain),
		EmailVerified:     p.EmailVerified,
		IsSuperVerified:   p.IsSuperVerified(a.SuperVerifiedDomain),
		CanCreate:         p.CanCreateCampaigns(a.SuperVerifiedDomain),
		CanVerify:         p.CanVerifyCampaigns(a.SuperVerifiedDomain),
		CreatedAt:         p.CreatedAt,
	}
}
