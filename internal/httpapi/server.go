package httpapi

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ballotbet/internal/config"
	"ballotbet/internal/service"
)

// Server wires the HTTP routes to the core services.
type Server struct {
	cfg         *config.Config
	accounts    *service.AccountService
	ledger      *service.LedgerService
	wagers      *service.WagerService
	withdrawals *service.WithdrawalService
	referrals   *service.ReferralService
	payments    *service.PaymentService
	elections   *service.ElectionService
}

// NewServer creates a Server with its service dependencies.
func NewServer(
	cfg *config.Config,
	accounts *service.AccountService,
	ledger *service.LedgerService,
	wagers *service.WagerService,
	withdrawals *service.WithdrawalService,
	referrals *service.ReferralService,
	payments *service.PaymentService,
	elections *service.ElectionService,
) *Server {
	return &Server{
		cfg:         cfg,
		accounts:    accounts,
		ledger:      ledger,
		wagers:      wagers,
		withdrawals: withdrawals,
		referrals:   referrals,
		payments:    payments,
		elections:   elections,
	}
}

// App builds the Fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "ballotbet",
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", s.handleRegister)
	auth.Post("/login", s.handleLogin)

	// Gateway-facing endpoints carry no bearer token.
	api.Post("/payments/mpesa/callback", s.handleGatewayCallback)

	// Public catalogue reads.
	api.Get("/elections", s.handleListElections)
	api.Get("/elections/:id", s.handleGetElection)

	user := api.Group("", s.requireAuth)
	user.Get("/balance", s.handleBalance)
	user.Post("/bets", s.handlePlaceBet)
	user.Get("/bets/history", s.handleBetHistory)
	user.Post("/withdraw", s.handleWithdraw)
	user.Get("/withdrawals/history", s.handleWithdrawalHistory)
	user.Get("/referrals/stats", s.handleReferralStats)
	user.Post("/payments/mpesa", s.handleTopUp)

	admin := api.Group("/admin", s.requireAuth, s.requireAdmin)
	admin.Get("/users", s.handleListAccounts)
	admin.Post("/balance", s.handleAdjustBalance)
	admin.Get("/mpesa-transactions", s.handleListPayments)
	admin.Post("/payments/mpesa/update_pending", s.handleSweepPending)
	admin.Post("/elections", s.handleCreateElection)
	admin.Put("/elections/:id", s.handleUpdateElection)
	admin.Delete("/elections/:id", s.handleDeleteElection)
	admin.Post("/elections/:id/candidates", s.handleCreateCandidate)
	admin.Put("/candidates/:id", s.handleUpdateCandidate)
	admin.Delete("/candidates/:id", s.handleDeleteCandidate)

	return app
}
