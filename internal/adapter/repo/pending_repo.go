package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"blockfund/internal/domain"
	"blockfund/internal/infra"
	"blockfund/internal/sqlinline"
)

// PendingDonationRepositoryPG implements domain.PendingDonationRepository.
type PendingDonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPendingDonationRepository creates a new PendingDonationRepositoryPG.
func NewPendingDonationRepository(sql infra.SQLExecutor) *PendingDonationRepositoryPG {
	return &PendingDonationRepositoryPG{sql: sql}
}

// Create records a submitted transfer. A reused transaction hash yields
// domain.ErrDuplicateOperation.
func (r *PendingDonationRepositoryPG) Create(ctx context.Context, p *domain.PendingDonation) error {
	var status string
	err := r.sql.QueryRow(ctx, sqlinline.QInsertPendingDonation,
		p.CampaignID,
		p.DonorID,
		p.DonorAddress,
		p.Amount.String(),
		p.TxHash,
	).Scan(&p.ID, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		// No row comes back when the hash is held by a pending or confirmed
		// submission.
		if infra.IsUniqueViolation(err) || infra.IsNoRows(err) {
			return domain.ErrDuplicateOperation
		}
		return err
	}
	p.Status = domain.PendingStatus(status)
	return nil
}

func (r *PendingDonationRepositoryPG) GetByTxHash(ctx context.Context, txHash string) (*domain.PendingDonation, error) {
	p, err := scanPending(r.sql.QueryRow(ctx, sqlinline.QSelectPendingDonationByTxHash, txHash))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListPending returns the oldest unresolved transfers first.
func (r *PendingDonationRepositoryPG) ListPending(ctx context.Context, limit int) ([]domain.PendingDonation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPendingDonations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.PendingDonation
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PendingDonationRepositoryPG) MarkFailed(ctx context.Context, txHash, reason string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkPendingDonationFailed, txHash, reason)
	return err
}

func (r *PendingDonationRepositoryPG) TouchAttempt(ctx context.Context, txHash string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QTouchPendingDonation, txHash)
	return err
}

// Apply moves a pending transfer into the donations table and bumps the
// campaign total in a single statement.
func (r *PendingDonationRepositoryPG) Apply(ctx context.Context, txHash string) (*domain.AppliedDonation, error) {
	var (
		applied   domain.AppliedDonation
		collected string
	)
	err := r.sql.QueryRow(ctx, sqlinline.QApplyPendingDonation, txHash).Scan(&applied.DonationID, &applied.CampaignID, &collected)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrDuplicateOperation
		}
		return nil, err
	}
	if applied.AmountCollected, err = parseNumeric("amount_collected", collected); err != nil {
		return nil, err
	}
	return &applied, nil
}

func scanPending(row pgx.Row) (*domain.PendingDonation, error) {
	var (
		p      domain.PendingDonation
		amount string
		status string
	)
	err := row.Scan(
		&p.ID,
		&p.CampaignID,
		&p.DonorID,
		&p.DonorAddress,
		&amount,
		&p.TxHash,
		&status,
		&p.FailureReason,
		&p.Attempts,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Amount, err = parseNumeric("amount", amount); err != nil {
		return nil, err
	}
	p.Status = domain.PendingStatus(status)
	return &p, nil
}
