package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"ballotbet/internal/model"
)

func (s *Server) handleListAccounts(c *fiber.Ctx) error {
	accounts, err := s.accounts.ListAccounts(c.Context(), historyLimit(c))
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]fiber.Map, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, accountView(a))
	}

	return jsonSuccess(c, "Accounts retrieved", items)
}

type adjustBalanceRequest struct {
	AccountID int64  `json:"account_id"`
	Amount    int64  `json:"amount"`
	Pool      string `json:"pool"`
}

// handleAdjustBalance applies a manual credit or debit to one pool.
// Negative amounts debit; the ledger refuses to drive a pool negative.
func (s *Server) handleAdjustBalance(c *fiber.Ctx) error {
	var req adjustBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	if req.Pool == "" {
		req.Pool = model.PoolReal
	}

	var account *model.Account
	var err error
	if req.Amount >= 0 {
		account, err = s.ledger.Credit(c.Context(), req.AccountID, req.Amount, req.Pool)
	} else {
		account, err = s.ledger.Debit(c.Context(), req.AccountID, -req.Amount, req.Pool)
	}
	if err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Balance adjusted", accountView(account))
}
