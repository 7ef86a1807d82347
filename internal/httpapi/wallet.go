package httpapi

import (
	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleBalance(c *fiber.Ctx) error {
	summary, err := s.accounts.Balance(c.Context(), accountIDFromCtx(c))
	if err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Balance retrieved", fiber.Map{
		"balance":       summary.Balance,
		"bonus_balance": summary.BonusBalance,
		"total_wagered": summary.TotalWagered,
		"withdrawable":  summary.Withdrawable,
		"currency":      summary.Currency,
	})
}

type withdrawRequest struct {
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

func (s *Server) handleWithdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	withdrawal, err := s.withdrawals.RequestWithdrawal(c.Context(), accountIDFromCtx(c), req.Amount, req.Method)
	if err != nil {
		return serviceError(c, err)
	}

	return jsonCreated(c, "Withdrawal requested", fiber.Map{
		"id":         withdrawal.ID,
		"amount":     withdrawal.Amount,
		"method":     withdrawal.Method,
		"status":     withdrawal.Status,
		"created_at": withdrawal.CreatedAt,
	})
}

func (s *Server) handleWithdrawalHistory(c *fiber.Ctx) error {
	withdrawals, err := s.withdrawals.History(c.Context(), accountIDFromCtx(c), historyLimit(c))
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]fiber.Map, 0, len(withdrawals))
	for _, w := range withdrawals {
		items = append(items, fiber.Map{
			"id":         w.ID,
			"amount":     w.Amount,
			"method":     w.Method,
			"status":     w.Status,
			"created_at": w.CreatedAt,
		})
	}

	return jsonSuccess(c, "Withdrawal history retrieved", items)
}

func (s *Server) handleReferralStats(c *fiber.Ctx) error {
	stats, err := s.referrals.Stats(c.Context(), accountIDFromCtx(c))
	if err != nil {
		return serviceError(c, err)
	}

	recent := make([]fiber.Map, 0, len(stats.Recent))
	for _, r := range stats.Recent {
		recent = append(recent, fiber.Map{
			"referred_id": r.ReferredID,
			"reward":      r.RewardAmount,
			"created_at":  r.CreatedAt,
		})
	}

	return jsonSuccess(c, "Referral stats retrieved", fiber.Map{
		"referral_code":   stats.ReferralCode,
		"total_referrals": stats.TotalReferrals,
		"total_earned":    stats.TotalEarned,
		"recent":          recent,
	})
}

func historyLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return limit
}
