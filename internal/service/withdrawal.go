package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"ballotbet/internal/model"
	"ballotbet/internal/observability"
	"ballotbet/internal/pkg/lock"
	"ballotbet/internal/repository"
)

// WithdrawalService is the withdrawal gate. Two independent ceilings
// both bind: the referral-taint ceiling (real balance minus referral
// earnings) and the wagering ceiling (min of real balance and total
// wagered); the effective ceiling is their minimum.
type WithdrawalService struct {
	pool           *pgxpool.Pool
	accountRepo    *repository.AccountRepository
	withdrawalRepo *repository.WithdrawalRepository
	referralRepo   *repository.ReferralRepository
	locks          *lock.AccountLock
	metrics        *observability.Metrics
	minWithdrawal  int64
}

// NewWithdrawalService creates a new WithdrawalService instance.
func NewWithdrawalService(
	pool *pgxpool.Pool,
	accountRepo *repository.AccountRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	referralRepo *repository.ReferralRepository,
	locks *lock.AccountLock,
	metrics *observability.Metrics,
	minWithdrawal int64,
) *WithdrawalService {
	return &WithdrawalService{
		pool:           pool,
		accountRepo:    accountRepo,
		withdrawalRepo: withdrawalRepo,
		referralRepo:   referralRepo,
		locks:          locks,
		metrics:        metrics,
		minWithdrawal:  minWithdrawal,
	}
}

// RequestWithdrawal authorizes a withdrawal and, if every check passes,
// debits the real pool and records a pending request atomically.
// Checks run in order; the first failure wins:
//  1. amount >= the configured minimum,
//  2. amount <= real balance,
//  3. the referral-taint ceiling is non-zero,
//  4. amount <= min(referral ceiling, wagering ceiling).
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, accountID, amount int64, method string) (*model.Withdrawal, error) {
	if amount <= 0 {
		s.metrics.WithdrawalsDenied.WithLabelValues("invalid_input").Inc()
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if method == "" {
		method = "MTN"
	}

	var withdrawal *model.Withdrawal
	err := s.locks.WithLock(accountID, func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin withdrawal tx: %w", err)
		}
		defer tx.Rollback(ctx)

		account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return ErrNotFound
			}
			return err
		}

		if amount < s.minWithdrawal {
			return fmt.Errorf("%w: minimum is %d credits", ErrBelowMinimum, s.minWithdrawal)
		}
		if amount > account.Balance {
			return ErrInsufficientFunds
		}

		referralEarned, err := s.referralRepo.SumRewardsTx(ctx, tx, accountID)
		if err != nil {
			return err
		}

		referralCeiling := account.Balance - referralEarned
		if referralCeiling < 0 {
			referralCeiling = 0
		}
		if referralCeiling == 0 {
			return ErrReferralLocked
		}

		wageringCeiling := account.Balance
		if account.TotalWagered < wageringCeiling {
			wageringCeiling = account.TotalWagered
		}

		ceiling := referralCeiling
		if wageringCeiling < ceiling {
			ceiling = wageringCeiling
		}
		if amount > ceiling {
			return &WithdrawalLimitError{Ceiling: ceiling}
		}

		if _, err := s.accountRepo.AdjustBalances(ctx, tx, accountID, -amount, 0); err != nil {
			return err
		}

		withdrawal, err = s.withdrawalRepo.Create(ctx, tx, accountID, amount, method)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBelowMinimum):
			s.metrics.WithdrawalsDenied.WithLabelValues("below_minimum").Inc()
		case errors.Is(err, ErrInsufficientFunds):
			s.metrics.WithdrawalsDenied.WithLabelValues("insufficient_funds").Inc()
		case errors.Is(err, ErrReferralLocked):
			s.metrics.WithdrawalsDenied.WithLabelValues("referral_locked").Inc()
		case errors.Is(err, ErrExceedsWithdrawable):
			s.metrics.WithdrawalsDenied.WithLabelValues("exceeds_withdrawable").Inc()
		}
		return nil, err
	}

	s.metrics.WithdrawalsOK.Inc()
	log.Info().
		Int64("account_id", accountID).
		Int64("amount", amount).
		Str("method", method).
		Msg("Withdrawal requested")

	return withdrawal, nil
}

// History retrieves an account's withdrawal requests, newest first.
func (s *WithdrawalService) History(ctx context.Context, accountID int64, limit int) ([]*model.Withdrawal, error) {
	return s.withdrawalRepo.ListByAccount(ctx, accountID, limit)
}
