// Package model defines the data models for the betting ledger.
package model

import "time"

// Account is one registered user's wallet. Money is split across three
// pools: real balance (withdrawable, subject to the gate rules), bonus
// balance (wagerable only) and the cumulative real-money wagered amount
// that sizes the withdrawal ceiling.
type Account struct {
	ID           int64     `db:"id"`
	Phone        string    `db:"phone"`
	PinHash      string    `db:"pin_hash"`
	Balance      int64     `db:"balance"`
	BonusBalance int64     `db:"bonus_balance"`
	TotalWagered int64     `db:"total_wagered"`
	ReferralCode string    `db:"referral_code"`
	ReferredBy   *string   `db:"referred_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Wager is one bet placement. Immutable after creation except Status,
// which is driven by an external settlement process.
type Wager struct {
	ID            int64     `db:"id"`
	AccountID     int64     `db:"account_id"`
	Stake         int64     `db:"stake"`
	TotalOdds     string    `db:"total_odds"`
	PossibleWin   int64     `db:"possible_win"`
	RealMoneyUsed int64     `db:"real_money_used"`
	BonusUsed     int64     `db:"bonus_used"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`

	Selections []WagerSelection `db:"-"`
}

// WagerSelection is one (candidate, odds) leg of a wager.
type WagerSelection struct {
	ID            int64  `db:"id"`
	WagerID       int64  `db:"wager_id"`
	CandidateName string `db:"candidate_name"`
	Odds          string `db:"odds"`
}

// Withdrawal is one withdrawal attempt. Status transitions are driven
// by an external operator action.
type Withdrawal struct {
	ID        int64     `db:"id"`
	AccountID int64     `db:"account_id"`
	Amount    int64     `db:"amount"`
	Method    string    `db:"method"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// ReferralReward is an immutable record of one successful referral
// attribution. The sum of RewardAmount per referrer defines the
// referral-tainted portion of that referrer's balance.
type ReferralReward struct {
	ID           int64     `db:"id"`
	ReferrerID   int64     `db:"referrer_id"`
	ReferredID   int64     `db:"referred_id"`
	RewardAmount int64     `db:"reward_amount"`
	CreatedAt    time.Time `db:"created_at"`
}

// PaymentIntent is one mobile-money push-payment attempt, keyed by the
// gateway's correlation id. It moves from pending to exactly one
// terminal status; only the pending->success transition credits the
// account.
type PaymentIntent struct {
	ID                int64     `db:"id"`
	AccountID         *int64    `db:"account_id"`
	Phone             string    `db:"phone"`
	Amount            int64     `db:"amount"`
	CheckoutRequestID string    `db:"checkout_request_id"`
	Status            string    `db:"status"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Election is reference data grouping the candidates a wager selects.
type Election struct {
	ID           string `db:"id"`
	Title        string `db:"title"`
	Constituency string `db:"constituency"`
	Type         string `db:"type"`

	Candidates []Candidate `db:"-"`
}

// Candidate is one election candidate with fixed decimal odds.
type Candidate struct {
	ID         int64  `db:"id"`
	ElectionID string `db:"election_id"`
	Name       string `db:"name"`
	Party      string `db:"party"`
	Odds       string `db:"odds"`
	Image      string `db:"image"`
}

// Wager statuses. Pending until an external settlement decides the
// outcome.
const (
	WagerStatusPending = "pending"
	WagerStatusWon     = "won"
	WagerStatusLost    = "lost"
	WagerStatusVoid    = "void"
)

// Withdrawal statuses.
const (
	WithdrawalStatusPending = "pending"
	WithdrawalStatusSuccess = "success"
	WithdrawalStatusFailed  = "failed"
)

// Payment intent statuses. Pending is the only non-terminal status.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Ledger pools targeted by debit/credit operations.
const (
	PoolReal  = "real"
	PoolBonus = "bonus"
)

// IsTerminalPaymentStatus reports whether a payment status admits no
// further transition.
func IsTerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}
