// Package httpapi exposes the betting ledger over HTTP using Fiber.
package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"ballotbet/internal/service"
)

func jsonSuccess(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func jsonCreated(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"data":    nil,
	})
}

// serviceError maps a core error onto an HTTP response. The sentinel
// messages are user-facing; anything unrecognized is logged and hidden
// behind a 500.
func serviceError(c *fiber.Ctx, err error) error {
	var limitErr *service.WithdrawalLimitError
	if errors.As(err, &limitErr) {
		return jsonError(c, fiber.StatusBadRequest, limitErr.Error())
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidCallback),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrReferralLocked),
		errors.Is(err, service.ErrExceedsWithdrawable):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidLogin):
		return jsonError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPhoneTaken):
		return jsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrGatewayUnavailable):
		return jsonError(c, fiber.StatusBadGateway, err.Error())
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled service error")
	return jsonError(c, fiber.StatusInternalServerError, "internal server error")
}
