package repo

import (
	"context"

	"blockfund/internal/domain"
	"blockfund/internal/infra"
	"blockfund/internal/sqlinline"
)

// VoteRepositoryPG implements domain.VoteRepository.
type VoteRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewVoteRepository(sql infra.SQLExecutor) *VoteRepositoryPG {
	return &VoteRepositoryPG{sql: sql}
}

// Upsert stores the voter's verdict, replacing any earlier one.
func (r *VoteRepositoryPG) Upsert(ctx context.Context, vote domain.VerificationVote) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpsertVerificationVote, vote.CampaignID, vote.VoterID, vote.Verdict)
	return err
}

func (r *VoteRepositoryPG) ListByCampaign(ctx context.Context, campaignID int64) ([]domain.VerificationVote, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListVerificationVotes, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := make([]domain.VerificationVote, 0)
	for rows.Next() {
		var v domain.VerificationVote
		if err := rows.Scan(&v.CampaignID, &v.VoterID, &v.Verdict, &v.CreatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return votes, nil
}
