// Package main is the entry point for the betting ledger API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ballotbet/internal/config"
	"ballotbet/internal/gateway"
	"ballotbet/internal/httpapi"
	"ballotbet/internal/observability"
	"ballotbet/internal/pkg/db"
	"ballotbet/internal/pkg/lock"
	"ballotbet/internal/repository"
	"ballotbet/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(dbPool.Pool)
	wagerRepo := repository.NewWagerRepository(dbPool.Pool)
	withdrawalRepo := repository.NewWithdrawalRepository(dbPool.Pool)
	referralRepo := repository.NewReferralRepository(dbPool.Pool)
	paymentRepo := repository.NewPaymentRepository(dbPool.Pool)
	electionRepo := repository.NewElectionRepository(dbPool.Pool)

	// Initialize account lock and metrics
	accountLock := lock.NewAccountLock()
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize payment gateway client
	gatewayClient := gateway.NewClient(&cfg.Gateway)

	// Initialize services
	ledgerService := service.NewLedgerService(dbPool.Pool, accountRepo, accountLock)
	referralService := service.NewReferralService(accountRepo, referralRepo, cfg.Wallet.ReferralReward)
	accountService := service.NewAccountService(dbPool.Pool, accountRepo, referralService, cfg.Wallet.SignupBonus)
	wagerService := service.NewWagerService(dbPool.Pool, accountRepo, wagerRepo, accountLock, metrics)
	withdrawalService := service.NewWithdrawalService(
		dbPool.Pool,
		accountRepo,
		withdrawalRepo,
		referralRepo,
		accountLock,
		metrics,
		cfg.Wallet.MinWithdrawal,
	)
	paymentService := service.NewPaymentService(dbPool.Pool, accountRepo, paymentRepo, ledgerService, gatewayClient, metrics)
	electionService := service.NewElectionService(electionRepo, cfg.Server.CacheSize, cfg.Server.CacheTTL)

	// Start the pending-payment sweep ticker
	go runSweep(ctx, paymentService, cfg.Sweep.Interval)

	// Build the HTTP server
	server := httpapi.NewServer(
		cfg,
		accountService,
		ledgerService,
		wagerService,
		withdrawalService,
		referralService,
		paymentService,
		electionService,
	)
	app := server.App()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server starting")
		if err := app.Listen(cfg.Server.Addr); err != nil {
			log.Fatal().Err(err).Msg("HTTP server stopped")
		}
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

// runSweep polls the gateway for pending payment intents on a fixed
// interval until the context is cancelled.
func runSweep(ctx context.Context, payments *service.PaymentService, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := payments.SweepPending(ctx); err != nil {
				log.Error().Err(err).Msg("Pending payment sweep failed")
			}
		}
	}
}
