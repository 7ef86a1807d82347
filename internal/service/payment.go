package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"ballotbet/internal/gateway"
	"ballotbet/internal/model"
	"ballotbet/internal/observability"
	"ballotbet/internal/pkg/phone"
	"ballotbet/internal/repository"
)

// Gateway is the mobile-money collaborator the reconciler needs.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, phone string, amount int64, reference string) (string, error)
	QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*gateway.QueryResult, error)
}

// PaymentService integrates the external push-payment gateway with the
// ledger. A gateway reference may be reconciled any number of times
// (duplicate callbacks, a polling sweep racing a live callback) but
// credits the real balance at most once: only the call that wins the
// pending->success transition performs the credit.
type PaymentService struct {
	pool        *pgxpool.Pool
	accountRepo *repository.AccountRepository
	paymentRepo *repository.PaymentRepository
	ledger      *LedgerService
	gw          Gateway
	metrics     *observability.Metrics
}

// NewPaymentService creates a new PaymentService instance.
func NewPaymentService(
	pool *pgxpool.Pool,
	accountRepo *repository.AccountRepository,
	paymentRepo *repository.PaymentRepository,
	ledger *LedgerService,
	gw Gateway,
	metrics *observability.Metrics,
) *PaymentService {
	return &PaymentService{
		pool:        pool,
		accountRepo: accountRepo,
		paymentRepo: paymentRepo,
		ledger:      ledger,
		gw:          gw,
		metrics:     metrics,
	}
}

// InitiateTopUp asks the gateway to push a payment prompt to the phone
// and persists a pending intent keyed by the gateway's correlation id.
// The intent is only created once the gateway has accepted the request,
// so a timeout cannot leave a dangling unreconcilable intent. No ledger
// mutation happens here.
func (s *PaymentService) InitiateTopUp(ctx context.Context, accountID int64, rawPhone string, amount int64) (*model.PaymentIntent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	canonical, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reference := fmt.Sprintf("TOPUP-%d-%s", accountID, uuid.NewString()[:8])
	checkoutRequestID, err := s.gw.InitiateSTKPush(ctx, canonical, amount, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, err)
	}

	intent, err := s.paymentRepo.Create(ctx, &accountID, canonical, amount, checkoutRequestID)
	if err != nil {
		return nil, err
	}

	s.metrics.TopUpsInitiated.Inc()
	log.Info().
		Int64("account_id", accountID).
		Str("checkout_request_id", checkoutRequestID).
		Int64("amount", amount).
		Msg("Top-up initiated")

	return intent, nil
}

// Reconcile applies one gateway notification (or poll answer) to the
// ledger. If no intent exists for the reference yet (the notification
// raced ahead of the initiating request) a pending one is created in
// the same transaction. The conditional pending->terminal update gates
// the credit: losing the race, or re-delivering an already-terminal
// reference, is a no-op, not an error.
func (s *PaymentService) Reconcile(ctx context.Context, checkoutRequestID string, resultCode int, amount int64, rawPhone string) error {
	if checkoutRequestID == "" || amount < 0 {
		return fmt.Errorf("%w: missing reference or negative amount", ErrInvalidCallback)
	}

	// Failure notifications carry no payer metadata; the phone is only
	// needed to resolve the account on a successful racing callback.
	canonical := ""
	if rawPhone != "" {
		var err error
		canonical, err = phone.Normalize(rawPhone)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidCallback, err)
		}
	}

	target := statusForResultCode(resultCode)
	if target == model.PaymentStatusPending {
		// Still processing on the gateway side; nothing to apply.
		s.metrics.Reconciliations.WithLabelValues("still_pending").Inc()
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin reconcile tx: %w", err)
	}
	defer tx.Rollback(ctx)

	intent, err := s.paymentRepo.EnsurePending(ctx, tx, checkoutRequestID, canonical, amount)
	if err != nil {
		return err
	}

	owned, err := s.paymentRepo.TransitionFromPending(ctx, tx, checkoutRequestID, target)
	if err != nil {
		return err
	}
	if !owned {
		// Already terminal: duplicate notification or a lost race.
		s.metrics.Reconciliations.WithLabelValues("duplicate").Inc()
		return tx.Commit(ctx)
	}

	if target == model.PaymentStatusSuccess {
		if err := s.creditIntent(ctx, tx, intent); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	s.metrics.Reconciliations.WithLabelValues(target).Inc()
	log.Info().
		Str("checkout_request_id", checkoutRequestID).
		Int("result_code", resultCode).
		Str("status", target).
		Msg("Payment reconciled")

	return nil
}

// creditIntent credits the intent's amount to the owning account's
// real balance inside the reconciliation transaction. For intents
// created from a racing notification the account is resolved by phone.
func (s *PaymentService) creditIntent(ctx context.Context, tx pgx.Tx, intent *model.PaymentIntent) error {
	var account *model.Account
	var err error

	if intent.AccountID != nil {
		account, err = s.accountRepo.GetForUpdate(ctx, tx, *intent.AccountID)
	} else {
		account, err = s.accountRepo.GetByPhoneForUpdate(ctx, tx, intent.Phone)
	}
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// The money arrived for a phone we do not know. Keep the
			// terminal status so the sweep stops retrying, and leave the
			// credit to manual ops.
			log.Warn().
				Str("checkout_request_id", intent.CheckoutRequestID).
				Str("phone", intent.Phone).
				Msg("Successful payment has no matching account")
			return nil
		}
		return err
	}

	if _, err := s.ledger.CreditRealTx(ctx, tx, account.ID, intent.Amount); err != nil {
		return err
	}

	if intent.AccountID == nil {
		if err := s.paymentRepo.AttachAccount(ctx, tx, intent.CheckoutRequestID, account.ID); err != nil {
			return err
		}
	}

	return nil
}

// SweepPending re-queries the gateway for every pending intent and
// applies the same idempotent transition rule. Safe to run concurrently
// with live callback delivery for the same transaction. One failing
// transaction never aborts the sweep.
func (s *PaymentService) SweepPending(ctx context.Context) (int, error) {
	s.metrics.SweepRuns.Inc()

	intents, err := s.paymentRepo.ListPending(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, intent := range intents {
		result, err := s.gw.QuerySTKStatus(ctx, intent.CheckoutRequestID)
		if err != nil {
			s.metrics.SweepFailures.Inc()
			log.Warn().
				Err(err).
				Str("checkout_request_id", intent.CheckoutRequestID).
				Msg("Gateway query failed during sweep")
			continue
		}

		if result.ResultCode == gateway.ResultCodePending {
			continue
		}

		if err := s.Reconcile(ctx, intent.CheckoutRequestID, result.ResultCode, intent.Amount, intent.Phone); err != nil {
			s.metrics.SweepFailures.Inc()
			log.Warn().
				Err(err).
				Str("checkout_request_id", intent.CheckoutRequestID).
				Msg("Reconciliation failed during sweep")
			continue
		}
		applied++
	}

	log.Info().
		Int("pending", len(intents)).
		Int("applied", applied).
		Msg("Pending payment sweep complete")

	return applied, nil
}

// GetIntent retrieves an intent by its gateway reference.
func (s *PaymentService) GetIntent(ctx context.Context, checkoutRequestID string) (*model.PaymentIntent, error) {
	intent, err := s.paymentRepo.GetByReference(ctx, checkoutRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrIntentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return intent, nil
}

// ListRecentIntents retrieves recent intents for the admin listing.
func (s *PaymentService) ListRecentIntents(ctx context.Context, limit int) ([]*model.PaymentIntent, error) {
	return s.paymentRepo.ListRecent(ctx, limit)
}

// statusForResultCode maps a gateway result code onto an intent status.
func statusForResultCode(code int) string {
	switch code {
	case gateway.ResultCodeSuccess:
		return model.PaymentStatusSuccess
	case gateway.ResultCodePending:
		return model.PaymentStatusPending
	case gateway.ResultCodeCancelled:
		return model.PaymentStatusCancelled
	default:
		return model.PaymentStatusFailed
	}
}
