package gatekeeper

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/domain"
	"github.com/moodshelf/recs-gateway/internal/events"
	"github.com/moodshelf/recs-gateway/internal/repository"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

// Key generation collisions are store-enforced and practically never
// happen, but the retry must exist anyway.
const maxIssueAttempts = 5

// Issue creates a new ticket with the given per-category limits and a
// lifetime in days (defaulting when days <= 0) and returns its key, the
// only handle the administrator gets to distribute.
func (g *Gatekeeper) Issue(ctx context.Context, limits map[domain.Category]int, days int) (string, error) {
	// Zero caps are dropped: a category the ticket cannot use is a
	// category it never purchased.
	granted := make(map[domain.Category]int, len(limits))
	for category, limit := range limits {
		if _, err := domain.ParseCategory(string(category)); err != nil {
			return "", apperrors.NewValidationError("unknown category", map[string]any{"category": string(category)})
		}
		if limit < 0 {
			return "", apperrors.NewValidationError("limit must be non-negative", map[string]any{"category": string(category)})
		}
		if limit == 0 {
			continue
		}
		granted[category] = limit
	}
	if len(granted) == 0 {
		return "", apperrors.NewValidationError("at least one positive category limit required", nil)
	}
	if days <= 0 {
		days = g.defaultDays
	}

	now := time.Now()
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		key, err := GenerateKey(g.keyPrefix, now)
		if err != nil {
			return "", apperrors.NewInternalError(err)
		}

		ticket := &domain.AccessTicket{
			Key:       key,
			Status:    domain.TicketStatusActive,
			Limits:    granted,
			Used:      make(map[domain.Category]int, len(granted)),
			CreatedAt: now,
			ExpiresAt: now.Add(time.Duration(days) * 24 * time.Hour),
		}
		for category := range granted {
			ticket.Used[category] = 0
		}

		err = g.store.Create(ctx, ticket)
		if errors.Is(err, repository.ErrDuplicateKey) {
			g.logger.Warn("ticket key collision, regenerating",
				zap.String("key", key), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return "", apperrors.NewStoreUnavailable(err)
		}

		g.publishIssued(ctx, ticket)
		return key, nil
	}
	return "", apperrors.NewInternalError(errors.New("could not generate a unique ticket key"))
}

// SetStatus blocks or reactivates a ticket.
func (g *Gatekeeper) SetStatus(ctx context.Context, key string, status domain.TicketStatus) error {
	if !status.Valid() {
		return apperrors.NewValidationError("status must be active or blocked", nil)
	}
	err := g.store.UpdateStatus(ctx, key, status)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"key": key})
	}
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}

	if g.dispatcher != nil {
		_ = g.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketBlocked,
			TicketKey: key,
			Timestamp: time.Now(),
			Payload:   events.TicketStatusChangedPayload{NewStatus: status},
		})
	}
	return nil
}

func (g *Gatekeeper) publishIssued(ctx context.Context, ticket *domain.AccessTicket) {
	if g.dispatcher == nil {
		return
	}
	_ = g.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketIssued,
		TicketKey: ticket.Key,
		Timestamp: time.Now(),
		Payload: events.TicketIssuedPayload{
			Limits:    ticket.Limits,
			ExpiresAt: ticket.ExpiresAt,
		},
	})
}
