// Package httpapi exposes the betting ledger over HTTP using Fiber.
// Tests use testcontainers-go to spin up a PostgreSQL container and
// drive the API end to end.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ballotbet/internal/config"
	"ballotbet/internal/gateway"
	"ballotbet/internal/observability"
	"ballotbet/internal/pkg/db"
	"ballotbet/internal/pkg/lock"
	"ballotbet/internal/repository"
	"ballotbet/internal/service"
)

func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// stubGateway accepts every push and reports every query as pending.
type stubGateway struct {
	refSeq int
}

func (g *stubGateway) InitiateSTKPush(_ context.Context, _ string, _ int64, _ string) (string, error) {
	g.refSeq++
	return fmt.Sprintf("ws_CO_stub_%d", g.refSeq), nil
}

func (g *stubGateway) QuerySTKStatus(_ context.Context, _ string) (*gateway.QueryResult, error) {
	return &gateway.QueryResult{ResultCode: gateway.ResultCodePending}, nil
}

func setupTestApp(t *testing.T) (*fiber.App, *pgxpool.Pool) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))

	t.Cleanup(func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	})

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
		Wallet: config.WalletConfig{
			SignupBonus:    2500,
			ReferralReward: 10000,
			MinWithdrawal:  1000,
		},
		Admin: config.AdminConfig{
			Phones: []string{"254700000099"},
		},
	}

	accountRepo := repository.NewAccountRepository(pool)
	wagerRepo := repository.NewWagerRepository(pool)
	withdrawalRepo := repository.NewWithdrawalRepository(pool)
	referralRepo := repository.NewReferralRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	electionRepo := repository.NewElectionRepository(pool)

	locks := lock.NewAccountLock()
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	ledger := service.NewLedgerService(pool, accountRepo, locks)
	referrals := service.NewReferralService(accountRepo, referralRepo, cfg.Wallet.ReferralReward)
	accounts := service.NewAccountService(pool, accountRepo, referrals, cfg.Wallet.SignupBonus)
	wagers := service.NewWagerService(pool, accountRepo, wagerRepo, locks, metrics)
	withdrawals := service.NewWithdrawalService(pool, accountRepo, withdrawalRepo, referralRepo, locks, metrics, cfg.Wallet.MinWithdrawal)
	payments := service.NewPaymentService(pool, accountRepo, paymentRepo, ledger, &stubGateway{}, metrics)
	elections := service.NewElectionService(electionRepo, 16, time.Second)

	server := NewServer(cfg, accounts, ledger, wagers, withdrawals, referrals, payments, elections)
	return server.App(), pool
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}

	return resp.StatusCode, decoded
}

func registerAccount(t *testing.T, app *fiber.App, phone string) (token string, data map[string]any) {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]any{
		"phone": phone,
		"pin":   "1234",
	})
	require.Equal(t, http.StatusCreated, status, "register failed: %v", body)

	payload := body["data"].(map[string]any)
	return payload["token"].(string), payload["account"].(map[string]any)
}

func TestAPI_RegisterLoginBalance(t *testing.T) {
	app, _ := setupTestApp(t)

	token, account := registerAccount(t, app, "0711000001")
	assert.NotEmpty(t, token)
	assert.Equal(t, "254711000001", account["phone"])

	// Wrong PIN
	status, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"phone": "0711000001",
		"pin":   "0000",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// Balance requires the token
	status, _ = doJSON(t, app, http.MethodGet, "/api/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := doJSON(t, app, http.MethodGet, "/api/balance", token, nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2500), data["bonus_balance"])
	assert.Equal(t, float64(0), data["balance"])
}

func TestAPI_PlaceBetAndHistory(t *testing.T) {
	app, _ := setupTestApp(t)

	token, _ := registerAccount(t, app, "0711000002")

	status, body := doJSON(t, app, http.MethodPost, "/api/bets", token, map[string]any{
		"stake": 1000,
		"selections": []map[string]any{
			{"candidate_name": "Alice", "odds": "1.50"},
			{"candidate_name": "Bob", "odds": "2.00"},
		},
	})
	require.Equal(t, http.StatusCreated, status, "bet failed: %v", body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "3.00", data["total_odds"])
	assert.Equal(t, float64(3000), data["possible_win"])
	assert.Equal(t, float64(0), data["real_money_used"])
	assert.Equal(t, float64(1000), data["bonus_used"])

	// Stake beyond both pools
	status, _ = doJSON(t, app, http.MethodPost, "/api/bets", token, map[string]any{
		"stake": 999999,
		"selections": []map[string]any{
			{"candidate_name": "Alice", "odds": "1.50"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/bets/history", token, nil)
	require.Equal(t, http.StatusOK, status)
	items := body["data"].([]any)
	assert.Len(t, items, 1)
}

func TestAPI_WithdrawGate(t *testing.T) {
	app, pool := setupTestApp(t)

	token, account := registerAccount(t, app, "0711000003")
	accountID := int64(account["id"].(float64))

	// Shape the wallet: 5000 real, 4500 wagered, no referral taint
	_, err := pool.Exec(context.Background(),
		`UPDATE accounts SET balance = 5000, total_wagered = 4500 WHERE id = $1`, accountID)
	require.NoError(t, err)

	status, body := doJSON(t, app, http.MethodPost, "/api/withdraw", token, map[string]any{
		"amount": 4600,
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "4500")

	status, body = doJSON(t, app, http.MethodPost, "/api/withdraw", token, map[string]any{
		"amount": 2000,
		"method": "MTN",
	})
	require.Equal(t, http.StatusCreated, status, "withdraw failed: %v", body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "pending", data["status"])
}

func TestAPI_GatewayCallback(t *testing.T) {
	app, _ := setupTestApp(t)

	token, account := registerAccount(t, app, "0711000004")

	status, body := doJSON(t, app, http.MethodPost, "/api/payments/mpesa", token, map[string]any{
		"phone":  "0711000004",
		"amount": 5000,
	})
	require.Equal(t, http.StatusOK, status, "top-up failed: %v", body)
	ref := body["data"].(map[string]any)["checkout_request_id"].(string)

	callback := map[string]any{
		"Body": map[string]any{
			"stkCallback": map[string]any{
				"CheckoutRequestID": ref,
				"ResultCode":        0,
				"ResultDesc":        "The service request is processed successfully.",
				"CallbackMetadata": map[string]any{
					"Item": []map[string]any{
						{"Name": "Amount", "Value": 5000.0},
						{"Name": "MpesaReceiptNumber", "Value": "TEST123"},
						{"Name": "PhoneNumber", "Value": 254711000004.0},
					},
				},
			},
		},
	}

	// The callback endpoint is unauthenticated and idempotent
	status, _ = doJSON(t, app, http.MethodPost, "/api/payments/mpesa/callback", "", callback)
	require.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, app, http.MethodPost, "/api/payments/mpesa/callback", "", callback)
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/balance", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(5000), body["data"].(map[string]any)["balance"])
	_ = account
}

func TestAPI_AdminAccess(t *testing.T) {
	app, _ := setupTestApp(t)

	userToken, _ := registerAccount(t, app, "0711000005")
	adminToken, _ := registerAccount(t, app, "0700000099")

	status, _ := doJSON(t, app, http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doJSON(t, app, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)

	// Admin creates the catalogue; anyone reads it
	status, _ = doJSON(t, app, http.MethodPost, "/api/admin/elections", adminToken, map[string]any{
		"id":    "gov-2027",
		"title": "Gubernatorial 2027",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/admin/elections/gov-2027/candidates", adminToken, map[string]any{
		"name": "Alice",
		"odds": "1.85",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/elections/gov-2027", "", nil)
	require.Equal(t, http.StatusOK, status)
	candidates := body["data"].(map[string]any)["candidates"].([]any)
	assert.Len(t, candidates, 1)
}

func TestAPI_Health(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
