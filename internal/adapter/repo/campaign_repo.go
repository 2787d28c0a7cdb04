package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"blockfund/internal/domain"
	"blockfund/internal/infra"
	"blockfund/internal/sqlinline"
)

const defaultCampaignLimit = 100

// CampaignRepositoryPG implements domain.CampaignRepository backed by PostgreSQL.
type CampaignRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewCampaignRepository creates a new CampaignRepositoryPG.
func NewCampaignRepository(sql infra.SQLExecutor) *CampaignRepositoryPG {
	return &CampaignRepositoryPG{sql: sql}
}

// Create inserts a campaign and returns the stored row.
func (r *CampaignRepositoryPG) Create(ctx context.Context, c domain.NewCampaign) (*domain.Campaign, error) {
	docs := c.Documents
	if docs == nil {
		docs = []string{}
	}
	videos := c.Videos
	if videos == nil {
		videos = []string{}
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertCampaign,
		c.OwnerID,
		c.OwnerAddress,
		c.CreatorName,
		c.Title,
		c.Description,
		c.Target.String(),
		c.Deadline.UTC(),
		c.ImageURL,
		docs,
		videos,
		c.ChainIndex,
	)
	return scanCampaign(row)
}

// GetByID fetches a campaign by its numeric id.
func (r *CampaignRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.Campaign, error) {
	return scanCampaign(r.sql.QueryRow(ctx, sqlinline.QSelectCampaignByID, id))
}

// List returns campaigns newest first. The tab predicate runs in SQL so the
// limit applies to matching rows.
func (r *CampaignRepositoryPG) List(ctx context.Context, filter domain.CampaignFilter) ([]domain.Campaign, error) {
	limit := filter.Limit
	if limit <= 0 || limit > defaultCampaignLimit {
		limit = defaultCampaignLimit
	}
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListCampaigns, filter.Search, filter.OwnerID, limit, string(filter.Tab), now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkVerified sets the verified flag. Existing verifier details are kept.
func (r *CampaignRepositoryPG) MarkVerified(ctx context.Context, id int64, verifiedBy string) (*domain.Campaign, error) {
	return scanCampaign(r.sql.QueryRow(ctx, sqlinline.QMarkCampaignVerified, id, verifiedBy))
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c          domain.Campaign
		target     string
		collected  string
		chainIndex *int64
		verifiedBy *string
		verifiedAt *time.Time
	)
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.OwnerAddress,
		&c.CreatorName,
		&c.Title,
		&c.Description,
		&target,
		&c.Deadline,
		&collected,
		&c.ImageURL,
		&c.Documents,
		&c.Videos,
		&chainIndex,
		&c.IsVerified,
		&verifiedBy,
		&verifiedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if c.Target, err = parseNumeric("target_amount", target); err != nil {
		return nil, err
	}
	if c.AmountCollected, err = parseNumeric("amount_collected", collected); err != nil {
		return nil, err
	}
	c.ChainIndex = chainIndex
	c.VerifiedBy = verifiedBy
	c.VerifiedAt = verifiedAt
	return &c, nil
}
