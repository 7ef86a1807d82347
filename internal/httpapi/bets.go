package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"ballotbet/internal/model"
	"ballotbet/internal/odds"
)

type betSelection struct {
	CandidateName string `json:"candidate_name"`
	Odds          string `json:"odds"`
}

type placeBetRequest struct {
	Stake      int64          `json:"stake"`
	Selections []betSelection `json:"selections"`
}

func wagerView(w *model.Wager) fiber.Map {
	selections := make([]fiber.Map, 0, len(w.Selections))
	for _, sel := range w.Selections {
		selections = append(selections, fiber.Map{
			"candidate_name": sel.CandidateName,
			"odds":           sel.Odds,
		})
	}

	return fiber.Map{
		"id":              w.ID,
		"stake":           w.Stake,
		"total_odds":      w.TotalOdds,
		"possible_win":    w.PossibleWin,
		"real_money_used": w.RealMoneyUsed,
		"bonus_used":      w.BonusUsed,
		"status":          w.Status,
		"selections":      selections,
		"created_at":      w.CreatedAt,
	}
}

func (s *Server) handlePlaceBet(c *fiber.Ctx) error {
	var req placeBetRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	selections := make([]odds.Selection, 0, len(req.Selections))
	for _, sel := range req.Selections {
		value, err := decimal.NewFromString(sel.Odds)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "odds must be decimal numbers")
		}
		selections = append(selections, odds.Selection{
			CandidateName: sel.CandidateName,
			Odds:          value,
		})
	}

	wager, err := s.wagers.PlaceWager(c.Context(), accountIDFromCtx(c), req.Stake, selections)
	if err != nil {
		return serviceError(c, err)
	}

	return jsonCreated(c, "Bet placed", wagerView(wager))
}

func (s *Server) handleBetHistory(c *fiber.Ctx) error {
	wagers, err := s.wagers.History(c.Context(), accountIDFromCtx(c), historyLimit(c))
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]fiber.Map, 0, len(wagers))
	for _, w := range wagers {
		items = append(items, wagerView(w))
	}

	return jsonSuccess(c, "Bet history retrieved", items)
}
