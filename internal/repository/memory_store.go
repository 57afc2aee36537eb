package repository

import (
	"context"
	"sync"
	"time"

	"github.com/moodshelf/recs-gateway/internal/domain"
)

// MemoryTicketStore is a mutex-guarded in-memory TicketStore. It backs the
// tests and keeps the gateway runnable without a POSTGRES_DSN.
type MemoryTicketStore struct {
	mu      sync.Mutex
	tickets map[string]*domain.AccessTicket
	now     func() time.Time
}

// NewMemoryTicketStore creates an empty store.
func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{
		tickets: make(map[string]*domain.AccessTicket),
		now:     time.Now,
	}
}

// SetClock overrides the time source, for expiry tests.
func (s *MemoryTicketStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryTicketStore) Find(_ context.Context, key string) (*domain.AccessTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[key]
	if !ok || ticket.Expired(s.now()) {
		return nil, ErrTicketNotFound
	}
	return ticket.Clone(), nil
}

func (s *MemoryTicketStore) AtomicConsume(_ context.Context, key string, category domain.Category) (*domain.AccessTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[key]
	if !ok || ticket.Expired(s.now()) || ticket.Status != domain.TicketStatusActive {
		return nil, ErrNoMatch
	}
	limit, ok := ticket.Limits[category]
	if !ok || ticket.Used[category] >= limit {
		return nil, ErrNoMatch
	}
	ticket.Used[category]++
	return ticket.Clone(), nil
}

func (s *MemoryTicketStore) Create(_ context.Context, ticket *domain.AccessTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[ticket.Key]; exists {
		return ErrDuplicateKey
	}
	s.tickets[ticket.Key] = ticket.Clone()
	return nil
}

func (s *MemoryTicketStore) UpdateStatus(_ context.Context, key string, status domain.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[key]
	if !ok || ticket.Expired(s.now()) {
		return ErrTicketNotFound
	}
	ticket.Status = status
	return nil
}

func (s *MemoryTicketStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	now := s.now()
	for key, ticket := range s.tickets {
		if ticket.Expired(now) {
			delete(s.tickets, key)
			removed++
		}
	}
	return removed, nil
}
