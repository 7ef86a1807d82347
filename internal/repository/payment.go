package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ballotbet/internal/model"
)

// ErrIntentNotFound is returned when a payment intent lookup misses.
var ErrIntentNotFound = errors.New("payment intent not found")

const intentColumns = `id, account_id, phone, amount, checkout_request_id, status, created_at, updated_at`

// PaymentRepository handles payment intent persistence. Terminal status
// transitions go through TransitionFromPending so a reference can be
// reconciled many times but credited at most once.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository instance.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func scanIntent(row pgx.Row) (*model.PaymentIntent, error) {
	var p model.PaymentIntent
	err := row.Scan(
		&p.ID,
		&p.AccountID,
		&p.Phone,
		&p.Amount,
		&p.CheckoutRequestID,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persists a pending intent after the gateway has accepted the
// push request.
func (r *PaymentRepository) Create(ctx context.Context, accountID *int64, phone string, amount int64, checkoutRequestID string) (*model.PaymentIntent, error) {
	query := `
		INSERT INTO payment_intents (account_id, phone, amount, checkout_request_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + intentColumns

	intent, err := scanIntent(r.pool.QueryRow(ctx, query, accountID, phone, amount, checkoutRequestID, model.PaymentStatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return intent, nil
}

// EnsurePending makes sure an intent row exists for a reference,
// creating a pending one if the notification raced ahead of the
// initiating request. Runs inside the reconciliation transaction; the
// unique constraint on the reference makes concurrent creators collapse
// to a single row.
func (r *PaymentRepository) EnsurePending(ctx context.Context, tx pgx.Tx, checkoutRequestID, phone string, amount int64) (*model.PaymentIntent, error) {
	const insert = `
		INSERT INTO payment_intents (phone, amount, checkout_request_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (checkout_request_id) DO NOTHING
	`

	if _, err := tx.Exec(ctx, insert, phone, amount, checkoutRequestID, model.PaymentStatusPending); err != nil {
		return nil, fmt.Errorf("failed to ensure payment intent: %w", err)
	}

	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE checkout_request_id = $1 FOR UPDATE`

	intent, err := scanIntent(tx.QueryRow(ctx, query, checkoutRequestID))
	if err != nil {
		return nil, fmt.Errorf("failed to read payment intent: %w", err)
	}

	return intent, nil
}

// TransitionFromPending moves an intent to a terminal status if and
// only if it is still pending. The affected-row count gates whether the
// caller may credit the ledger: true means this call owns the
// transition.
func (r *PaymentRepository) TransitionFromPending(ctx context.Context, tx pgx.Tx, checkoutRequestID, status string) (bool, error) {
	const query = `
		UPDATE payment_intents
		SET status = $2, updated_at = NOW()
		WHERE checkout_request_id = $1 AND status = 'pending'
	`

	tag, err := tx.Exec(ctx, query, checkoutRequestID, status)
	if err != nil {
		return false, fmt.Errorf("failed to transition payment intent: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// AttachAccount links an intent to the account it credited, for intents
// created from a racing notification.
func (r *PaymentRepository) AttachAccount(ctx context.Context, tx pgx.Tx, checkoutRequestID string, accountID int64) error {
	const query = `
		UPDATE payment_intents
		SET account_id = $2, updated_at = NOW()
		WHERE checkout_request_id = $1 AND account_id IS NULL
	`

	if _, err := tx.Exec(ctx, query, checkoutRequestID, accountID); err != nil {
		return fmt.Errorf("failed to attach account to payment intent: %w", err)
	}

	return nil
}

// GetByReference retrieves an intent by its gateway correlation id.
func (r *PaymentRepository) GetByReference(ctx context.Context, checkoutRequestID string) (*model.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE checkout_request_id = $1`

	intent, err := scanIntent(r.pool.QueryRow(ctx, query, checkoutRequestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	return intent, nil
}

// ListPending retrieves all intents still awaiting a terminal status,
// oldest first, for the polling sweep.
func (r *PaymentRepository) ListPending(ctx context.Context) ([]*model.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE status = 'pending' ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending intents: %w", err)
	}
	defer rows.Close()

	var intents []*model.PaymentIntent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment intent: %w", err)
		}
		intents = append(intents, intent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment intents: %w", err)
	}

	return intents, nil
}

// ListRecent retrieves the most recent intents for the admin listing.
func (r *PaymentRepository) ListRecent(ctx context.Context, limit int) ([]*model.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment intents: %w", err)
	}
	defer rows.Close()

	var intents []*model.PaymentIntent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment intent: %w", err)
		}
		intents = append(intents, intent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment intents: %w", err)
	}

	return intents, nil
}
