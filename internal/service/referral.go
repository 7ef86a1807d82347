package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"ballotbet/internal/model"
	"ballotbet/internal/repository"
)

const (
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralCodeLength   = 6
	codeMintAttempts     = 10
)

// ReferralStats summarizes a referrer's program state.
type ReferralStats struct {
	ReferralCode   string
	TotalReferrals int64
	TotalEarned    int64
	Recent         []*model.ReferralReward
}

// ReferralService mints referral codes and attributes signups.
type ReferralService struct {
	accountRepo  *repository.AccountRepository
	referralRepo *repository.ReferralRepository
	reward       int64
}

// NewReferralService creates a new ReferralService instance.
func NewReferralService(accountRepo *repository.AccountRepository, referralRepo *repository.ReferralRepository, reward int64) *ReferralService {
	return &ReferralService{
		accountRepo:  accountRepo,
		referralRepo: referralRepo,
		reward:       reward,
	}
}

// MintCode generates a fresh referral code, retrying until it does not
// collide with an existing one. Collisions are unlikely but checked,
// not assumed; the unique constraint on the column is the last line of
// defense.
func (s *ReferralService) MintCode(ctx context.Context) (string, error) {
	for i := 0; i < codeMintAttempts; i++ {
		code, err := randomCode(referralCodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}

		exists, err := s.accountRepo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to mint unique referral code after %d attempts", codeMintAttempts)
}

// AttributeSignup resolves a referral code and, if it belongs to an
// existing account, credits the referrer's real balance and appends the
// immutable reward record, all inside the registration transaction, so
// a partially-applied referral cannot be observed. A code that does not
// resolve is silently ignored; that is a normal outcome, not an error.
// Returns the referrer's code when attribution happened, for the new
// account's referred_by column.
func (s *ReferralService) AttributeSignup(ctx context.Context, tx pgx.Tx, codeInput string) (*string, func(newAccountID int64) error, error) {
	code := strings.ToUpper(strings.TrimSpace(codeInput))
	if code == "" {
		return nil, nil, nil
	}

	referrer, err := s.accountRepo.GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	// The new account's row does not exist yet when the code resolves,
	// so the reward insert is deferred until after the account insert.
	apply := func(newAccountID int64) error {
		if _, err := s.accountRepo.GetForUpdate(ctx, tx, referrer.ID); err != nil {
			return err
		}
		if _, err := s.accountRepo.AdjustBalances(ctx, tx, referrer.ID, s.reward, 0); err != nil {
			return err
		}
		if _, err := s.referralRepo.CreateReward(ctx, tx, referrer.ID, newAccountID, s.reward); err != nil {
			return err
		}

		log.Info().
			Int64("referrer_id", referrer.ID).
			Int64("referred_id", newAccountID).
			Int64("reward", s.reward).
			Msg("Referral attributed")
		return nil
	}

	return &referrer.ReferralCode, apply, nil
}

// Stats summarizes an account's referral activity.
func (s *ReferralService) Stats(ctx context.Context, accountID int64) (*ReferralStats, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	referred, err := s.accountRepo.CountByReferralCode(ctx, account.ReferralCode)
	if err != nil {
		return nil, err
	}

	earned, err := s.referralRepo.SumRewards(ctx, accountID)
	if err != nil {
		return nil, err
	}

	recent, err := s.referralRepo.ListRecent(ctx, accountID, 5)
	if err != nil {
		return nil, err
	}

	return &ReferralStats{
		ReferralCode:   account.ReferralCode,
		TotalReferrals: referred,
		TotalEarned:    earned,
		Recent:         recent,
	}, nil
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(buf), nil
}
