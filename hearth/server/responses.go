package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hearthgate/hearth/hearth/auth"
	"github.com/hearthgate/hearth/hearth/economy"
)

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func sendSuccess(c *fiber.Ctx, data interface{}, message string) error {
	return c.Status(http.StatusOK).JSON(successResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func sendCreated(c *fiber.Ctx, data interface{}, message string) error {
	return c.Status(http.StatusCreated).JSON(successResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func sendError(c *fiber.Ctx, statusCode int, code, message string, details map[string]string) error {
	return c.Status(statusCode).JSON(errorResponse{
		Success: false,
		Error: errorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// sendDomainError maps the economy error taxonomy to HTTP statuses. All of
// these are expected caller-recoverable conditions; anything unrecognized is
// a store failure and surfaces as a plain 500.
func sendDomainError(c *fiber.Ctx, err error) error {
	if ce, ok := economy.AsCooldown(err); ok {
		return sendError(c, http.StatusTooManyRequests, "ON_COOLDOWN", ce.Error(), map[string]string{
			"remaining_seconds": strconv.Itoa(int(ce.Remaining.Round(time.Second) / time.Second)),
		})
	}
	if ve, ok := economy.AsValidation(err); ok {
		return sendError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ve.Error(), map[string]string{
			ve.Field: ve.Reason,
		})
	}

	switch {
	case errors.Is(err, economy.ErrNotFound):
		return sendError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, economy.ErrNoJob):
		return sendError(c, http.StatusNotFound, "NO_JOB", "No job held", nil)
	case errors.Is(err, economy.ErrConflict):
		return sendError(c, http.StatusConflict, "CONFLICT", "Resource already held", nil)
	case errors.Is(err, economy.ErrInvalidState):
		return sendError(c, http.StatusConflict, "INVALID_STATE", "Already resolved", nil)
	case errors.Is(err, economy.ErrExpired):
		return sendError(c, http.StatusGone, "EXPIRED", "Past expiry", nil)
	case errors.Is(err, economy.ErrInsufficientFunds):
		return sendError(c, http.StatusBadRequest, "INSUFFICIENT_FUNDS", "Balance too low", nil)
	case errors.Is(err, auth.ErrUnauthorized):
		return sendError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", nil)
	}

	slog.Error("Request failed",
		slog.String("type", "http"),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return sendError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", nil)
}
