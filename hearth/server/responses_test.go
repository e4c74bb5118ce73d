package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthgate/hearth/hearth/auth"
	"github.com/hearthgate/hearth/hearth/economy"
)

func TestSendDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: economy.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "no job", err: economy.ErrNoJob, wantStatus: http.StatusNotFound},
		{name: "conflict", err: economy.ErrConflict, wantStatus: http.StatusConflict},
		{name: "invalid state", err: economy.ErrInvalidState, wantStatus: http.StatusConflict},
		{name: "expired", err: economy.ErrExpired, wantStatus: http.StatusGone},
		{name: "insufficient funds", err: economy.ErrInsufficientFunds, wantStatus: http.StatusBadRequest},
		{name: "cooldown", err: &economy.CooldownError{Remaining: 30 * time.Second}, wantStatus: http.StatusTooManyRequests},
		{name: "validation", err: &economy.ValidationError{Field: "amount", Reason: "must be positive"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "unauthorized", err: auth.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "store failure", err: errors.New("connection refused"), wantStatus: http.StatusInternalServerError},
		{name: "wrapped taxonomy error", err: errors.Join(errors.New("lookup"), economy.ErrNotFound), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return sendDomainError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRequireUserMissingToken(t *testing.T) {
	s := &Server{app: fiber.New()}
	s.app.Get("/", RequireUser(s), func(c *fiber.Ctx) error {
		return sendSuccess(c, nil, "")
	})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
