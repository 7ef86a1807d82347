package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"ballotbet/internal/model"
	"ballotbet/internal/observability"
	"ballotbet/internal/odds"
	"ballotbet/internal/pkg/lock"
	"ballotbet/internal/repository"
)

// WagerService drives bet placement: odds arithmetic, the real/bonus
// split, and the atomic ledger debit. It is the only mutator of
// total_wagered.
type WagerService struct {
	pool        *pgxpool.Pool
	accountRepo *repository.AccountRepository
	wagerRepo   *repository.WagerRepository
	locks       *lock.AccountLock
	metrics     *observability.Metrics
}

// NewWagerService creates a new WagerService instance.
func NewWagerService(
	pool *pgxpool.Pool,
	accountRepo *repository.AccountRepository,
	wagerRepo *repository.WagerRepository,
	locks *lock.AccountLock,
	metrics *observability.Metrics,
) *WagerService {
	return &WagerService{
		pool:        pool,
		accountRepo: accountRepo,
		wagerRepo:   wagerRepo,
		locks:       locks,
		metrics:     metrics,
	}
}

// PlaceWager validates the stake and selections, consumes the stake
// from the balance pools (real money first, bonus for the remainder)
// and persists the wager with its selections in one transaction.
// On any failure no state changes.
func (s *WagerService) PlaceWager(ctx context.Context, accountID, stake int64, selections []odds.Selection) (*model.Wager, error) {
	if stake <= 0 {
		s.metrics.WagersRejected.WithLabelValues("invalid_input").Inc()
		return nil, fmt.Errorf("%w: stake must be positive", ErrInvalidInput)
	}

	combined, err := odds.Combined(selections)
	if err != nil {
		s.metrics.WagersRejected.WithLabelValues("invalid_input").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	possibleWin := odds.PossibleWin(stake, combined)

	var wager *model.Wager
	err = s.locks.WithLock(accountID, func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin wager tx: %w", err)
		}
		defer tx.Rollback(ctx)

		account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return ErrNotFound
			}
			return err
		}

		realUsed, bonusUsed, ok := odds.SplitStake(stake, account.Balance, account.BonusBalance)
		if !ok {
			return ErrInsufficientFunds
		}

		if _, err := s.accountRepo.ApplyWagerDebit(ctx, tx, accountID, realUsed, bonusUsed); err != nil {
			return err
		}

		draft := &model.Wager{
			AccountID:     accountID,
			Stake:         stake,
			TotalOdds:     combined.StringFixed(2),
			PossibleWin:   possibleWin,
			RealMoneyUsed: realUsed,
			BonusUsed:     bonusUsed,
		}
		for _, sel := range selections {
			draft.Selections = append(draft.Selections, model.WagerSelection{
				CandidateName: sel.CandidateName,
				Odds:          sel.Odds.StringFixed(2),
			})
		}

		wager, err = s.wagerRepo.Create(ctx, tx, draft)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			s.metrics.WagersRejected.WithLabelValues("insufficient_funds").Inc()
		}
		return nil, err
	}

	s.metrics.WagersPlaced.Inc()
	log.Info().
		Int64("account_id", accountID).
		Int64("wager_id", wager.ID).
		Int64("stake", stake).
		Int64("real_used", wager.RealMoneyUsed).
		Int64("bonus_used", wager.BonusUsed).
		Str("total_odds", wager.TotalOdds).
		Msg("Wager placed")

	return wager, nil
}

// History retrieves an account's wagers, newest first.
func (s *WagerService) History(ctx context.Context, accountID int64, limit int) ([]*model.Wager, error) {
	return s.wagerRepo.ListByAccount(ctx, accountID, limit)
}
