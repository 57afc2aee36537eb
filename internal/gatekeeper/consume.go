package gatekeeper

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/domain"
	"github.com/moodshelf/recs-gateway/internal/events"
	"github.com/moodshelf/recs-gateway/internal/repository"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

// Annotated is a response payload that can carry the post-consumption
// remaining count.
type Annotated interface {
	Annotate(remaining int)
}

// QuotaHandler produces a category response under an approved grant. The
// outcome is an explicit return value, never a hook on the response writer:
// the wrapper charges quota only when the handler returns a payload.
type QuotaHandler func(c *fiber.Ctx, grant Grant) (Annotated, error)

// WithQuota wraps a handler so quota is decremented exactly once, after the
// handler succeeds. Handler errors propagate unchanged and charge nothing.
func (g *Gatekeeper) WithQuota(category domain.Category, handler QuotaHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		grant, ok := GrantFromContext(c)
		if !ok {
			return apperrors.NewInternalError(errors.New("quota wrapper invoked without guard"))
		}

		payload, err := handler(c, grant)
		if err != nil {
			return err
		}

		remaining := g.charge(c, grant, category)
		payload.Annotate(remaining)
		return c.JSON(payload)
	}
}

// charge performs the atomic consume and resolves the remaining count to
// annotate. A lost race or a store outage at this point never discards the
// already-computed response.
func (g *Gatekeeper) charge(c *fiber.Ctx, grant Grant, category domain.Category) int {
	ticket, err := g.store.AtomicConsume(c.UserContext(), grant.Key, category)
	switch {
	case err == nil:
		remaining := ticket.Remaining(category)
		g.publish(c, events.Event{
			Type:      events.EventQuotaConsumed,
			TicketKey: grant.Key,
			Category:  category,
			Payload:   events.QuotaConsumedPayload{Remaining: remaining},
		})
		return remaining
	case errors.Is(err, repository.ErrNoMatch):
		// Quota ran out between the guard check and now. The response is
		// served anyway; the caller just sees zero remaining.
		g.logger.Debug("consume lost race",
			zap.String("key", grant.Key),
			zap.String("category", string(category)))
		g.publish(c, events.Event{
			Type:      events.EventQuotaExhausted,
			TicketKey: grant.Key,
			Category:  category,
		})
		return 0
	default:
		g.logger.Error("consume failed, serving response uncharged",
			zap.String("key", grant.Key),
			zap.String("category", string(category)),
			zap.Error(err))
		remaining := grant.Remaining - 1
		if remaining < 0 {
			remaining = 0
		}
		return remaining
	}
}

func (g *Gatekeeper) publish(c *fiber.Ctx, event events.Event) {
	if g.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = g.dispatcher.Publish(c.UserContext(), event)
}
