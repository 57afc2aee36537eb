package domain

import "time"

// TicketStatus enumerates lifecycle states for access tickets.
type TicketStatus string

const (
	TicketStatusActive  TicketStatus = "active"
	TicketStatusBlocked TicketStatus = "blocked"
)

// Valid reports whether the status is a known value.
func (s TicketStatus) Valid() bool {
	return s == TicketStatusActive || s == TicketStatusBlocked
}

// AccessTicket is a grant of per-category request quota identified by an
// opaque bearer key. Used counters only move up, and only through the
// store's atomic consume operation.
type AccessTicket struct {
	Key       string
	Status    TicketStatus
	Limits    map[Category]int
	Used      map[Category]int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Remaining returns limits[c]-used[c] at this point in time. Categories
// absent from Limits carry no quota.
func (t *AccessTicket) Remaining(c Category) int {
	limit, ok := t.Limits[c]
	if !ok {
		return 0
	}
	return limit - t.Used[c]
}

// Expired reports whether the ticket is past its expiry at the given time.
func (t *AccessTicket) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// Clone returns a deep copy so callers never share the mutable counters.
func (t *AccessTicket) Clone() *AccessTicket {
	cp := *t
	cp.Limits = make(map[Category]int, len(t.Limits))
	for k, v := range t.Limits {
		cp.Limits[k] = v
	}
	cp.Used = make(map[Category]int, len(t.Used))
	for k, v := range t.Used {
		cp.Used[k] = v
	}
	return &cp
}
