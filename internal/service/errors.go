// Package service provides business logic implementations.
package service

import (
	"errors"
	"fmt"
)

// Caller-visible error kinds. The HTTP layer maps these to status
// codes; the core never crashes on any of them.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrBelowMinimum        = errors.New("amount below minimum withdrawal")
	ErrReferralLocked      = errors.New("balance is from referrals and cannot be withdrawn")
	ErrExceedsWithdrawable = errors.New("amount exceeds withdrawable ceiling")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrInvalidCallback     = errors.New("invalid gateway callback")
	ErrNotFound            = errors.New("not found")
	ErrInvalidLogin        = errors.New("invalid phone or PIN")
	ErrPhoneTaken          = errors.New("phone already registered")
)

// WithdrawalLimitError carries the current withdrawable ceiling so the
// caller can report it. Matches ErrExceedsWithdrawable via errors.Is.
type WithdrawalLimitError struct {
	Ceiling int64
}

func (e *WithdrawalLimitError) Error() string {
	return fmt.Sprintf("you can only withdraw up to %d credits; referral earnings are locked", e.Ceiling)
}

func (e *WithdrawalLimitError) Unwrap() error {
	return ErrExceedsWithdrawable
}
