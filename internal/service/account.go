package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"ballotbet/internal/model"
	"ballotbet/internal/pkg/phone"
	"ballotbet/internal/repository"
)

// BalanceSummary is the wallet view returned to the account holder.
// Withdrawable is the informational wagering ceiling; the withdrawal
// gate applies the full rules.
type BalanceSummary struct {
	Balance      int64
	BonusBalance int64
	TotalWagered int64
	Withdrawable int64
	Currency     string
}

// AccountService handles registration, login and balance reads.
type AccountService struct {
	pool        *pgxpool.Pool
	accountRepo *repository.AccountRepository
	referrals   *ReferralService
	signupBonus int64
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(pool *pgxpool.Pool, accountRepo *repository.AccountRepository, referrals *ReferralService, signupBonus int64) *AccountService {
	return &AccountService{
		pool:        pool,
		accountRepo: accountRepo,
		referrals:   referrals,
		signupBonus: signupBonus,
	}
}

// Register creates an account with the signup bonus in the bonus pool
// and runs referral attribution as part of the same transaction.
func (s *AccountService) Register(ctx context.Context, rawPhone, pin, referralCodeInput string) (*model.Account, error) {
	canonical, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if pin == "" {
		return nil, fmt.Errorf("%w: PIN required", ErrInvalidInput)
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	code, err := s.referrals.MintCode(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration tx: %w", err)
	}
	defer tx.Rollback(ctx)

	referredBy, applyReward, err := s.referrals.AttributeSignup(ctx, tx, referralCodeInput)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.Create(ctx, tx, canonical, string(pinHash), code, s.signupBonus, referredBy)
	if err != nil {
		if errors.Is(err, repository.ErrPhoneTaken) {
			return nil, ErrPhoneTaken
		}
		return nil, err
	}

	if applyReward != nil {
		if err := applyReward(account.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	log.Info().
		Int64("account_id", account.ID).
		Str("phone", account.Phone).
		Bool("referred", referredBy != nil).
		Msg("Account registered")

	return account, nil
}

// Login verifies the phone/PIN pair and returns the account.
func (s *AccountService) Login(ctx context.Context, rawPhone, pin string) (*model.Account, error) {
	canonical, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	account, err := s.accountRepo.GetByPhone(ctx, canonical)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PinHash), []byte(pin)) != nil {
		return nil, ErrInvalidLogin
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (s *AccountService) GetAccount(ctx context.Context, accountID int64) (*model.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// Balance returns the wallet summary. The reported withdrawable figure
// is min(realBalance, totalWagered); the withdrawal gate additionally
// enforces the referral-taint ceiling when money actually moves.
func (s *AccountService) Balance(ctx context.Context, accountID int64) (*BalanceSummary, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	withdrawable := account.Balance
	if account.TotalWagered < withdrawable {
		withdrawable = account.TotalWagered
	}

	return &BalanceSummary{
		Balance:      account.Balance,
		BonusBalance: account.BonusBalance,
		TotalWagered: account.TotalWagered,
		Withdrawable: withdrawable,
		Currency:     "UGX",
	}, nil
}

// ListAccounts retrieves accounts for the admin listing.
func (s *AccountService) ListAccounts(ctx context.Context, limit int) ([]*model.Account, error) {
	return s.accountRepo.ListAll(ctx, limit)
}
