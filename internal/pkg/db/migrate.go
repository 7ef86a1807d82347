package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order on startup. Statements are written to
// be idempotent so repeated startups are safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		phone VARCHAR(20) NOT NULL UNIQUE,
		pin_hash VARCHAR(255) NOT NULL,
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		bonus_balance BIGINT NOT NULL DEFAULT 0 CHECK (bonus_balance >= 0),
		total_wagered BIGINT NOT NULL DEFAULT 0 CHECK (total_wagered >= 0),
		referral_code VARCHAR(12) NOT NULL UNIQUE,
		referred_by VARCHAR(12),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS wagers (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		stake BIGINT NOT NULL CHECK (stake > 0),
		total_odds NUMERIC(12,2) NOT NULL,
		possible_win BIGINT NOT NULL,
		real_money_used BIGINT NOT NULL CHECK (real_money_used >= 0),
		bonus_used BIGINT NOT NULL CHECK (bonus_used >= 0),
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS wager_selections (
		id BIGSERIAL PRIMARY KEY,
		wager_id BIGINT NOT NULL REFERENCES wagers(id) ON DELETE CASCADE,
		candidate_name VARCHAR(100) NOT NULL,
		odds NUMERIC(8,2) NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS withdrawals (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL CHECK (amount > 0),
		method VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS referral_rewards (
		id BIGSERIAL PRIMARY KEY,
		referrer_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		referred_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		reward_amount BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS payment_intents (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT REFERENCES accounts(id) ON DELETE SET NULL,
		phone VARCHAR(20) NOT NULL,
		amount BIGINT NOT NULL CHECK (amount >= 0),
		checkout_request_id VARCHAR(100) NOT NULL UNIQUE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS elections (
		id VARCHAR(64) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		constituency VARCHAR(255) NOT NULL DEFAULT '',
		type VARCHAR(50) NOT NULL DEFAULT 'presidential'
	)`,

	`CREATE TABLE IF NOT EXISTS candidates (
		id BIGSERIAL PRIMARY KEY,
		election_id VARCHAR(64) NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		party VARCHAR(100) NOT NULL DEFAULT '',
		odds NUMERIC(8,2) NOT NULL DEFAULT 1,
		image TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_wagers_account ON wagers(account_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_account ON withdrawals(account_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_referral_rewards_referrer ON referral_rewards(referrer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_intents_status ON payment_intents(status)`,
}

// Migrate applies the schema to the connected database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	log.Info().Int("statements", len(migrations)).Msg("Database schema up to date")
	return nil
}
