package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"ballotbet/internal/model"
)

type registerRequest struct {
	Phone        string `json:"phone"`
	PIN          string `json:"pin"`
	ReferralCode string `json:"referral_code"`
}

type loginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

func accountView(a *model.Account) fiber.Map {
	return fiber.Map{
		"id":            a.ID,
		"phone":         a.Phone,
		"balance":       a.Balance,
		"bonus_balance": a.BonusBalance,
		"total_wagered": a.TotalWagered,
		"referral_code": a.ReferralCode,
		"created_at":    a.CreatedAt,
	}
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	account, err := s.accounts.Register(c.Context(), req.Phone, req.PIN, req.ReferralCode)
	if err != nil {
		return serviceError(c, err)
	}

	token, err := s.issueToken(account.ID, account.Phone)
	if err != nil {
		return serviceError(c, err)
	}

	return jsonCreated(c, "Account registered", fiber.Map{
		"account": accountView(account),
		"token":   token,
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	account, err := s.accounts.Login(c.Context(), req.Phone, req.PIN)
	if err != nil {
		return serviceError(c, err)
	}

	token, err := s.issueToken(account.ID, account.Phone)
	if err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Login successful", fiber.Map{
		"account": accountView(account),
		"token":   token,
	})
}
