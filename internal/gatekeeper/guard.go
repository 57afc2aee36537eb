package gatekeeper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/domain"
	"github.com/moodshelf/recs-gateway/internal/repository"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

// HeaderAccessKey carries the bearer ticket key.
const HeaderAccessKey = "X-Access-Key"

const grantKey = "gatekeeper_grant"

// Grant is the approved context a guard attaches for downstream stages.
// Remaining is the pre-consumption count seen at check time.
type Grant struct {
	Key       string
	Category  domain.Category
	Remaining int
}

// Guard returns the pre-check middleware for one category. It is read-only:
// no quota is consumed here, the consumption wrapper re-validates
// atomically at charge time.
func (g *Gatekeeper) Guard(category domain.Category) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderAccessKey)
		if key == "" {
			return apperrors.NewUnauthorized("access key missing")
		}

		ticket, err := g.store.Find(c.UserContext(), key)
		if err != nil && !errors.Is(err, repository.ErrTicketNotFound) {
			g.logger.Error("ticket lookup failed", zap.Error(err))
			return apperrors.NewStoreUnavailable(err)
		}

		decision := CheckAccess(ticket, category)
		if !decision.Allowed {
			return apperrors.NewForbidden(decision.Reason)
		}

		c.Locals(grantKey, Grant{Key: key, Category: category, Remaining: decision.Remaining})
		return c.Next()
	}
}

// GrantFromContext retrieves the guard's approval.
func GrantFromContext(c *fiber.Ctx) (Grant, bool) {
	val := c.Locals(grantKey)
	if val == nil {
		return Grant{}, false
	}
	grant, ok := val.(Grant)
	return grant, ok
}
