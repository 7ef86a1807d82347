package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ballotbet/internal/model"
)

// ReferralRepository handles referral reward persistence. Reward rows
// are append-only; their per-referrer sum is the referral-tainted
// portion of that referrer's balance.
type ReferralRepository struct {
	pool *pgxpool.Pool
}

// NewReferralRepository creates a new ReferralRepository instance.
func NewReferralRepository(pool *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{pool: pool}
}

// CreateReward appends one immutable reward record inside the
// registration transaction.
func (r *ReferralRepository) CreateReward(ctx context.Context, tx pgx.Tx, referrerID, referredID, amount int64) (*model.ReferralReward, error) {
	const query = `
		INSERT INTO referral_rewards (referrer_id, referred_id, reward_amount, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, referrer_id, referred_id, reward_amount, created_at
	`

	var reward model.ReferralReward
	err := tx.QueryRow(ctx, query, referrerID, referredID, amount).Scan(
		&reward.ID,
		&reward.ReferrerID,
		&reward.ReferredID,
		&reward.RewardAmount,
		&reward.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create referral reward: %w", err)
	}

	return &reward, nil
}

// SumRewards totals the rewards issued to a referrer.
func (r *ReferralRepository) SumRewards(ctx context.Context, referrerID int64) (int64, error) {
	return sumRewards(ctx, r.pool, referrerID)
}

// SumRewardsTx is SumRewards evaluated inside an open transaction, for
// the withdrawal gate's consistent read.
func (r *ReferralRepository) SumRewardsTx(ctx context.Context, tx pgx.Tx, referrerID int64) (int64, error) {
	return sumRewards(ctx, tx, referrerID)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumRewards(ctx context.Context, q rowQuerier, referrerID int64) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(reward_amount), 0)
		FROM referral_rewards
		WHERE referrer_id = $1
	`

	var total int64
	if err := q.QueryRow(ctx, query, referrerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum referral rewards: %w", err)
	}

	return total, nil
}

// ListRecent retrieves a referrer's most recent rewards, newest first.
func (r *ReferralRepository) ListRecent(ctx context.Context, referrerID int64, limit int) ([]*model.ReferralReward, error) {
	const query = `
		SELECT id, referrer_id, referred_id, reward_amount, created_at
		FROM referral_rewards
		WHERE referrer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, referrerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list referral rewards: %w", err)
	}
	defer rows.Close()

	var rewards []*model.ReferralReward
	for rows.Next() {
		var reward model.ReferralReward
		err := rows.Scan(
			&reward.ID,
			&reward.ReferrerID,
			&reward.ReferredID,
			&reward.RewardAmount,
			&reward.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral reward: %w", err)
		}
		rewards = append(rewards, &reward)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referral rewards: %w", err)
	}

	return rewards, nil
}
