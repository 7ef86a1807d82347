package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"ballotbet/internal/model"
	"ballotbet/internal/pkg/lock"
	"ballotbet/internal/repository"
)

// LedgerService owns the atomic debit/credit operations on an
// account's balance pools. Every mutation takes the account's row lock
// so concurrent writers to the same account serialize.
type LedgerService struct {
	pool        *pgxpool.Pool
	accountRepo *repository.AccountRepository
	locks       *lock.AccountLock
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(pool *pgxpool.Pool, accountRepo *repository.AccountRepository, locks *lock.AccountLock) *LedgerService {
	return &LedgerService{pool: pool, accountRepo: accountRepo, locks: locks}
}

// Debit removes amount from the targeted pool. Fails with
// ErrInsufficientFunds if the pool would go negative; no state changes
// on failure.
func (s *LedgerService) Debit(ctx context.Context, accountID, amount int64, pool string) (*model.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive", ErrInvalidInput)
	}
	return s.apply(ctx, accountID, -amount, pool)
}

// Credit adds amount to the targeted pool.
func (s *LedgerService) Credit(ctx context.Context, accountID, amount int64, pool string) (*model.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", ErrInvalidInput)
	}
	return s.apply(ctx, accountID, amount, pool)
}

// CreditReal is the entry point payment reconciliation and admin
// top-ups use to grow a real balance.
func (s *LedgerService) CreditReal(ctx context.Context, accountID, amount int64) (*model.Account, error) {
	return s.Credit(ctx, accountID, amount, model.PoolReal)
}

func (s *LedgerService) apply(ctx context.Context, accountID, delta int64, pool string) (*model.Account, error) {
	if delta == 0 || (pool != model.PoolReal && pool != model.PoolBonus) {
		return nil, fmt.Errorf("%w: bad ledger operation", ErrInvalidInput)
	}

	var updated *model.Account
	err := s.locks.WithLock(accountID, func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin ledger tx: %w", err)
		}
		defer tx.Rollback(ctx)

		account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return ErrNotFound
			}
			return err
		}

		var realDelta, bonusDelta int64
		switch pool {
		case model.PoolReal:
			realDelta = delta
			if account.Balance+delta < 0 {
				return ErrInsufficientFunds
			}
		case model.PoolBonus:
			bonusDelta = delta
			if account.BonusBalance+delta < 0 {
				return ErrInsufficientFunds
			}
		}

		updated, err = s.accountRepo.AdjustBalances(ctx, tx, accountID, realDelta, bonusDelta)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("account_id", accountID).
		Int64("delta", delta).
		Str("pool", pool).
		Msg("Ledger entry applied")

	return updated, nil
}

// CreditRealTx credits the real pool inside an already-open
// transaction that holds the account's row lock. Used by payment
// reconciliation so the credit commits atomically with the intent's
// status transition.
func (s *LedgerService) CreditRealTx(ctx context.Context, tx pgx.Tx, accountID, amount int64) (*model.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", ErrInvalidInput)
	}
	return s.accountRepo.AdjustBalances(ctx, tx, accountID, amount, 0)
}
