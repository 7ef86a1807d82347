// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ballotbet/internal/model"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrPhoneTaken      = errors.New("phone already registered")
	ErrCodeCollision   = errors.New("referral code already in use")
)

const accountColumns = `id, phone, pin_hash, balance, bonus_balance, total_wagered,
		referral_code, referred_by, created_at, updated_at`

// AccountRepository handles account persistence. All balance mutations
// go through row-locked transactions owned by the service layer.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.Phone,
		&a.PinHash,
		&a.Balance,
		&a.BonusBalance,
		&a.TotalWagered,
		&a.ReferralCode,
		&a.ReferredBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account inside the given transaction. The
// signup bonus lands in the bonus pool; the real pool starts at zero.
func (r *AccountRepository) Create(ctx context.Context, tx pgx.Tx, phone, pinHash, referralCode string, bonusBalance int64, referredBy *string) (*model.Account, error) {
	query := `
		INSERT INTO accounts (phone, pin_hash, balance, bonus_balance, total_wagered,
			referral_code, referred_by, created_at, updated_at)
		VALUES ($1, $2, 0, $3, 0, $4, $5, NOW(), NOW())
		RETURNING ` + accountColumns

	account, err := scanAccount(tx.QueryRow(ctx, query, phone, pinHash, bonusBalance, referralCode, referredBy))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "accounts_phone_key":
				return nil, ErrPhoneTaken
			case "accounts_referral_code_key":
				return nil, ErrCodeCollision
			}
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// GetByPhone retrieves an account by its canonical phone number.
func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE phone = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by phone: %w", err)
	}

	return account, nil
}

// GetByReferralCode retrieves the account owning a referral code.
func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE referral_code = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by referral code: %w", err)
	}

	return account, nil
}

// GetForUpdate reads an account inside tx holding its row lock,
// serializing concurrent mutations on the same account.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	account, err := scanAccount(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	return account, nil
}

// GetByPhoneForUpdate is GetForUpdate keyed by phone, used when a
// gateway notification only carries the payer's number.
func (r *AccountRepository) GetByPhoneForUpdate(ctx context.Context, tx pgx.Tx, phone string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE phone = $1 FOR UPDATE`

	account, err := scanAccount(tx.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account by phone: %w", err)
	}

	return account, nil
}

// AdjustBalances applies deltas to the real and bonus pools inside tx.
// The caller must already hold the row lock; the CHECK constraints are
// the final guard against a pool going negative.
func (r *AccountRepository) AdjustBalances(ctx context.Context, tx pgx.Tx, id int64, realDelta, bonusDelta int64) (*model.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, bonus_balance = bonus_balance + $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(tx.QueryRow(ctx, query, id, realDelta, bonusDelta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to adjust balances: %w", err)
	}

	return account, nil
}

// ApplyWagerDebit consumes the stake split from both pools and advances
// total_wagered by the real-money portion only.
func (r *AccountRepository) ApplyWagerDebit(ctx context.Context, tx pgx.Tx, id int64, realUsed, bonusUsed int64) (*model.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance - $2,
		    bonus_balance = bonus_balance - $3,
		    total_wagered = total_wagered + $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(tx.QueryRow(ctx, query, id, realUsed, bonusUsed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to apply wager debit: %w", err)
	}

	return account, nil
}

// CodeExists checks whether a referral code is already assigned.
func (r *AccountRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE referral_code = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check referral code: %w", err)
	}

	return exists, nil
}

// CountByReferralCode counts accounts attributed to a referral code.
func (r *AccountRepository) CountByReferralCode(ctx context.Context, code string) (int64, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE referred_by = $1`

	var n int64
	if err := r.pool.QueryRow(ctx, query, code).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count referred accounts: %w", err)
	}

	return n, nil
}

// ListAll retrieves accounts newest first, for the admin listing.
func (r *AccountRepository) ListAll(ctx context.Context, limit int) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}
