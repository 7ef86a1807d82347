// Package odds implements the wager payout arithmetic.
package odds

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Selection is one (candidate, odds) leg of a wager.
type Selection struct {
	CandidateName string
	Odds          decimal.Decimal
}

// ErrInvalidOdds is returned when a selection carries non-positive odds.
var ErrInvalidOdds = errors.New("selection odds must be positive")

// ErrNoSelections is returned when a wager has no legs.
var ErrNoSelections = errors.New("wager needs at least one selection")

// Combined multiplies all selection odds and rounds the product
// half-up to 2 decimal places.
func Combined(selections []Selection) (decimal.Decimal, error) {
	if len(selections) == 0 {
		return decimal.Zero, ErrNoSelections
	}

	total := decimal.NewFromInt(1)
	for _, s := range selections {
		if !s.Odds.IsPositive() {
			return decimal.Zero, ErrInvalidOdds
		}
		total = total.Mul(s.Odds)
	}

	return total.Round(2), nil
}

// PossibleWin computes floor(stake * combinedOdds).
func PossibleWin(stake int64, combined decimal.Decimal) int64 {
	return decimal.NewFromInt(stake).Mul(combined).Floor().IntPart()
}

// SplitStake computes the real/bonus split for a stake against the two
// balance pools: real money first, bonus covers the remainder. The
// returned ok is false when the pools together cannot cover the stake.
func SplitStake(stake, realBalance, bonusBalance int64) (realUsed, bonusUsed int64, ok bool) {
	realUsed = min(stake, realBalance)
	bonusUsed = min(stake-realUsed, bonusBalance)
	return realUsed, bonusUsed, realUsed+bonusUsed == stake
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
