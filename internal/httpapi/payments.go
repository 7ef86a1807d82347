package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"ballotbet/internal/model"
)

type topUpRequest struct {
	Phone  string `json:"phone"`
	Amount int64  `json:"amount"`
}

func (s *Server) handleTopUp(c *fiber.Ctx) error {
	var req topUpRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	intent, err := s.payments.InitiateTopUp(c.Context(), accountIDFromCtx(c), req.Phone, req.Amount)
	if err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Payment prompt sent, enter your PIN on the phone", fiber.Map{
		"checkout_request_id": intent.CheckoutRequestID,
		"amount":              intent.Amount,
		"status":              intent.Status,
	})
}

// stkCallback mirrors the gateway's notification body. Metadata items
// are loosely typed; Amount arrives as a float and PhoneNumber as a
// bare number.
type stkCallback struct {
	Body struct {
		StkCallback struct {
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string `json:"Name"`
					Value any    `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

func (cb *stkCallback) metadata() (amount int64, phone string) {
	for _, item := range cb.Body.StkCallback.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			if f, ok := item.Value.(float64); ok {
				amount = int64(f)
			}
		case "PhoneNumber":
			switch v := item.Value.(type) {
			case float64:
				phone = strconv.FormatInt(int64(v), 10)
			case string:
				phone = v
			}
		}
	}
	return amount, phone
}

// handleGatewayCallback ingests the asynchronous payment notification.
// The gateway retries on non-200 responses, so reconciliation failures
// other than a malformed body still acknowledge receipt.
func (s *Server) handleGatewayCallback(c *fiber.Ctx) error {
	var cb stkCallback
	if err := c.BodyParser(&cb); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid callback body")
	}

	ref := cb.Body.StkCallback.CheckoutRequestID
	if ref == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing CheckoutRequestID")
	}

	amount, payerPhone := cb.metadata()
	if err := s.payments.Reconcile(c.Context(), ref, cb.Body.StkCallback.ResultCode, amount, payerPhone); err != nil {
		log.Error().Err(err).Str("checkout_request_id", ref).Msg("Callback reconciliation failed")
	}

	return jsonSuccess(c, "Callback received", nil)
}

// handleSweepPending triggers the pending-intent sweep on demand.
func (s *Server) handleSweepPending(c *fiber.Ctx) error {
	applied, err := s.payments.SweepPending(c.Context())
	if err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Pending payments swept", fiber.Map{"applied": applied})
}

func intentView(p *model.PaymentIntent) fiber.Map {
	return fiber.Map{
		"id":                  p.ID,
		"account_id":          p.AccountID,
		"phone":               p.Phone,
		"amount":              p.Amount,
		"checkout_request_id": p.CheckoutRequestID,
		"status":              p.Status,
		"created_at":          p.CreatedAt,
		"updated_at":          p.UpdatedAt,
	}
}

func (s *Server) handleListPayments(c *fiber.Ctx) error {
	intents, err := s.payments.ListRecentIntents(c.Context(), historyLimit(c))
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]fiber.Map, 0, len(intents))
	for _, p := range intents {
		items = append(items, intentView(p))
	}

	return jsonSuccess(c, "Payment transactions retrieved", items)
}
