package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

// AdminMiddleware validates bearer tokens on the issuance API.
type AdminMiddleware struct {
	tokens *TokenManager
}

// NewAdminMiddleware constructs middleware.
func NewAdminMiddleware(tokens *TokenManager) *AdminMiddleware {
	return &AdminMiddleware{tokens: tokens}
}

// Handle enforces an admin token for protected routes.
func (m *AdminMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	if _, err := m.tokens.ParseToken(parts[1]); err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	return c.Next()
}
