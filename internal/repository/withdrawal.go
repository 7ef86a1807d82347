package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ballotbet/internal/model"
)

// WithdrawalRepository handles withdrawal request persistence.
type WithdrawalRepository struct {
	pool *pgxpool.Pool
}

// NewWithdrawalRepository creates a new WithdrawalRepository instance.
func NewWithdrawalRepository(pool *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{pool: pool}
}

// Create records a pending withdrawal request inside the gate's
// transaction, alongside the real-pool debit.
func (r *WithdrawalRepository) Create(ctx context.Context, tx pgx.Tx, accountID, amount int64, method string) (*model.Withdrawal, error) {
	const query = `
		INSERT INTO withdrawals (account_id, amount, method, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, account_id, amount, method, status, created_at
	`

	var w model.Withdrawal
	err := tx.QueryRow(ctx, query, accountID, amount, method, model.WithdrawalStatusPending).Scan(
		&w.ID,
		&w.AccountID,
		&w.Amount,
		&w.Method,
		&w.Status,
		&w.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	return &w, nil
}

// ListByAccount retrieves an account's withdrawals newest first.
func (r *WithdrawalRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*model.Withdrawal, error) {
	const query = `
		SELECT id, account_id, amount, method, status, created_at
		FROM withdrawals
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []*model.Withdrawal
	for rows.Next() {
		var w model.Withdrawal
		err := rows.Scan(
			&w.ID,
			&w.AccountID,
			&w.Amount,
			&w.Method,
			&w.Status,
			&w.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawals: %w", err)
	}

	return withdrawals, nil
}
