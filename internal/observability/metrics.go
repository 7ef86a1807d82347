// Package observability holds the Prometheus metrics for the betting
// ledger.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger core.
type Metrics struct {
	WagersPlaced      prometheus.Counter
	WagersRejected    *prometheus.CounterVec
	WithdrawalsOK     prometheus.Counter
	WithdrawalsDenied *prometheus.CounterVec
	TopUpsInitiated   prometheus.Counter
	Reconciliations   *prometheus.CounterVec
	SweepRuns         prometheus.Counter
	SweepFailures     prometheus.Counter
}

// NewMetrics creates and registers all metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WagersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "ballotbet_wagers_placed_total",
			Help: "Wagers accepted by the wager engine",
		}),

		WagersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbet_wagers_rejected_total",
			Help: "Wagers rejected (insufficient funds, validation)",
		}, []string{"reason"}),

		WithdrawalsOK: factory.NewCounter(prometheus.CounterOpts{
			Name: "ballotbet_withdrawals_requested_total",
			Help: "Withdrawal requests accepted by the gate",
		}),

		WithdrawalsDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbet_withdrawals_denied_total",
			Help: "Withdrawal requests denied by the gate",
		}, []string{"reason"}),

		TopUpsInitiated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ballotbet_topups_initiated_total",
			Help: "Push-payment requests accepted by the gateway",
		}),

		Reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ballotbet_reconciliations_total",
			Help: "Payment reconciliation outcomes",
		}, []string{"outcome"}),

		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "ballotbet_sweep_runs_total",
			Help: "Pending-payment sweep iterations",
		}),

		SweepFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ballotbet_sweep_failures_total",
			Help: "Per-transaction gateway failures during sweeps",
		}),
	}
}
