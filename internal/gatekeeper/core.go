package gatekeeper

import (
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/config"
	"github.com/moodshelf/recs-gateway/internal/domain"
	"github.com/moodshelf/recs-gateway/internal/events"
	"github.com/moodshelf/recs-gateway/internal/repository"
)

// Denial reasons surfaced to clients, in decision order.
const (
	ReasonNotFound     = "ticket not found"
	ReasonBlocked      = "ticket blocked"
	ReasonNotPurchased = "category not purchased"
	ReasonExhausted    = "category limit exhausted"
)

// Decision is the outcome of a pure access check. Remaining is the
// pre-consumption count and only meaningful when Allowed is true.
type Decision struct {
	Allowed   bool
	Reason    string
	Remaining int
}

// CheckAccess decides whether a ticket may use a category. First match
// wins; no side effects, safe to call any number of times.
func CheckAccess(ticket *domain.AccessTicket, category domain.Category) Decision {
	if ticket == nil {
		return Decision{Reason: ReasonNotFound}
	}
	if ticket.Status != domain.TicketStatusActive {
		return Decision{Reason: ReasonBlocked}
	}
	// A zero cap is the same as never buying the category.
	limit, ok := ticket.Limits[category]
	if !ok || limit <= 0 {
		return Decision{Reason: ReasonNotPurchased}
	}
	remaining := limit - ticket.Used[category]
	if remaining <= 0 {
		return Decision{Reason: ReasonExhausted}
	}
	return Decision{Allowed: true, Remaining: remaining}
}

// Gatekeeper bundles the access-control core: the guard pre-check, the
// consumption wrapper and ticket issuance. It owns no ticket state; all
// mutation is delegated to the store's atomic consume.
type Gatekeeper struct {
	store       repository.TicketStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	keyPrefix   string
	defaultDays int
}

// New constructs the gatekeeper.
func New(store repository.TicketStore, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.GatekeeperConfig) *Gatekeeper {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "GK"
	}
	days := cfg.DefaultLifetimeDays
	if days <= 0 {
		days = 1
	}
	return &Gatekeeper{
		store:       store,
		dispatcher:  dispatcher,
		logger:      logger,
		keyPrefix:   prefix,
		defaultDays: days,
	}
}

// Store exposes the underlying ticket store for status-only reads.
func (g *Gatekeeper) Store() repository.TicketStore {
	return g.store
}
