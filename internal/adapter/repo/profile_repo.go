package repo

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"blockfund/internal/domain"
	"blockfund/internal/infra"
	"blockfund/internal/sqlinline"
)

// ProfileRepositoryPG implements domain.ProfileRepository backed by PostgreSQL.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProfileRepository creates a new ProfileRepositoryPG.
func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// CreateWithPassword registers an email/password profile.
func (r *ProfileRepositoryPG) CreateWithPassword(ctx context.Context, email, passwordHash, displayName string) (*domain.Profile, error) {
	p, err := scanProfile(r.sql.QueryRow(ctx, sqlinline.QInsertPasswordProfile, strings.TrimSpace(email), passwordHash, displayName))
	if err != nil && infra.IsUniqueViolation(err) {
		return nil, domain.ErrEmailTaken
	}
	return p, err
}

// UpsertByGoogleSub inserts or links a profile based on the Google subject.
func (r *ProfileRepositoryPG) UpsertByGoogleSub(ctx context.Context, sub, email, displayName string) (*domain.Profile, error) {
	p, err := scanProfile(r.sql.QueryRow(ctx, sqlinline.QUpsertGoogleProfile, sub, strings.TrimSpace(email), displayName))
	if err != nil && infra.IsUniqueViolation(err) {
		return nil, domain.ErrDuplicateOperation
	}
	return p, err
}

// GetByID fetches a profile by UUID.
func (r *ProfileRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return scanProfile(r.sql.QueryRow(ctx, sqlinline.QSelectProfileByID, id))
}

// GetByEmail fetches a profile by email, case-insensitively.
func (r *ProfileRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return scanProfile(r.sql.QueryRow(ctx, sqlinline.QSelectProfileByEmail, strings.TrimSpace(email)))
}

// LinkWallet stores the address proven by a wallet signature. An address
// already linked to another profile yields domain.ErrDuplicateOperation.
func (r *ProfileRepositoryPG) LinkWallet(ctx context.Context, id, address string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QLinkProfileWallet, id, address)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return domain.ErrDuplicateOperation
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetFlags updates the creator and admin flags. Nil values are left unchanged.
func (r *ProfileRepositoryPG) SetFlags(ctx context.Context, id string, verifiedCreator, admin *bool) (*domain.Profile, error) {
	return scanProfile(r.sql.QueryRow(ctx, sqlinline.QSetProfileFlags, id, verifiedCreator, admin))
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		p        domain.Profile
		provider string
	)
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.PasswordHash,
		&p.GoogleSub,
		&provider,
		&p.DisplayName,
		&p.WalletAddress,
		&p.IsAdmin,
		&p.IsVerifiedCreator,
		&p.EmailVerified,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Provider = domain.AuthProvider(provider)
	return &p, nil
}
