package events

import (
	"time"

	"github.com/moodshelf/recs-gateway/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketIssued   EventType = "ticket_issued"
	EventTicketBlocked  EventType = "ticket_status_changed"
	EventQuotaConsumed  EventType = "quota_consumed"
	EventQuotaExhausted EventType = "quota_exhausted"
)

// Event represents a gatekeeper event emitted by the access-control core.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	TicketKey string          `json:"ticket_key"`
	Category  domain.Category `json:"category,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   interface{}     `json:"payload"`
}

// TicketIssuedPayload payload.
type TicketIssuedPayload struct {
	Limits    map[domain.Category]int `json:"limits"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	NewStatus domain.TicketStatus `json:"new_status"`
}

// QuotaConsumedPayload payload.
type QuotaConsumedPayload struct {
	Remaining int `json:"remaining"`
}
