package http

import (
	"context"
	"strings"

	"territory-run/internal/game/domain/client"
	"territory-run/internal/shared/contextkeys"

	"github.com/gofiber/fiber/v2"
)

// Middleware authenticates engine requests through the identity module. The
// engine never parses credentials itself; it only learns the user ID.
type Middleware struct {
	auth client.AuthClient
}

// NewMiddleware creates the engine auth middleware.
func NewMiddleware(auth client.AuthClient) *Middleware {
	return &Middleware{auth: auth}
}

// RequireAuth rejects requests without a valid credential.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}

		userID, err := m.auth.ValidateToken(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		ctx := context.WithValue(c.UserContext(), contextkeys.UserIDKey, userID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// OptionalAuth resolves the user when a valid credential is present and
// passes the request through anonymously otherwise.
func (m *Middleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return c.Next()
		}

		userID, err := m.auth.ValidateToken(c.Context(), token)
		if err != nil {
			return c.Next()
		}

		ctx := context.WithValue(c.UserContext(), contextkeys.UserIDKey, userID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// extractToken reads the bearer token from the Authorization header or the
// token query parameter used by WebSocket clients.
func extractToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}
