package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hearthgate/hearth/hearth/auth"
)

const identityKey = "identity"

// RequireUser resolves the bearer token, applies the permission gate, and
// seeds the caller's balances on first contact. Handlers behind it can
// assume a resolved, allowed identity in locals.
func RequireUser(s *Server) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return sendError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
		}

		identity, err := s.resolver.Resolve(c.UserContext(), token)
		if err != nil {
			return sendDomainError(c, err)
		}

		if !s.gate.Allow(identity) {
			slog.Warn("Economy access denied",
				slog.String("type", "http"),
				slog.String("user_id", identity.ID.String()))
			return sendError(c, http.StatusForbidden, "FORBIDDEN", "Economy access denied", nil)
		}

		if err := s.ledger.EnsureSeeded(c.UserContext(), identity.ID.String()); err != nil {
			return sendDomainError(c, err)
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// currentIdentity returns the identity stored by RequireUser.
func currentIdentity(c *fiber.Ctx) *auth.Identity {
	return c.Locals(identityKey).(*auth.Identity)
}

// currentUserID is the resolved id in the string form the store uses.
func currentUserID(c *fiber.Ctx) string {
	return currentIdentity(c).ID.String()
}
