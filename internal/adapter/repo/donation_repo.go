package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"blockfund/internal/domain"
	"blockfund/internal/infra"
	"blockfund/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// ListByCampaign returns the donations recorded for one campaign, newest first.
func (r *DonationRepositoryPG) ListByCampaign(ctx context.Context, campaignID int64) ([]domain.Donation, error) {
	return r.list(ctx, sqlinline.QListDonationsByCampaign, campaignID)
}

// ListByDonor returns every donation made by a profile, newest first.
func (r *DonationRepositoryPG) ListByDonor(ctx context.Context, donorID string) ([]domain.Donation, error) {
	return r.list(ctx, sqlinline.QListDonationsByDonor, donorID)
}

// HasDonated reports whether the donor has at least one recorded donation.
func (r *DonationRepositoryPG) HasDonated(ctx context.Context, campaignID int64, donorID string) (bool, error) {
	var ok bool
	if err := r.sql.QueryRow(ctx, sqlinline.QHasDonated, campaignID, donorID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *DonationRepositoryPG) list(ctx context.Context, query string, arg any) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var (
		d      domain.Donation
		amount string
	)
	if err := row.Scan(&d.ID, &d.CampaignID, &d.DonorID, &d.DonorAddress, &amount, &d.TxHash, &d.CreatedAt, &d.CampaignTitle); err != nil {
		return nil, err
	}
	var err error
	if d.Amount, err = parseNumeric("amount", amount); err != nil {
		return nil, err
	}
	return &d, nil
}
