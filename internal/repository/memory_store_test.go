package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodshelf/recs-gateway/internal/domain"
)

func newTicket(key string, limits map[domain.Category]int) *domain.AccessTicket {
	used := make(map[domain.Category]int, len(limits))
	for c := range limits {
		used[c] = 0
	}
	return &domain.AccessTicket{
		Key:       key,
		Status:    domain.TicketStatusActive,
		Limits:    limits,
		Used:      used,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func TestMemoryStoreCreateAndFind(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	ticket := newTicket("GK-AAAAA-250101", map[domain.Category]int{domain.CategoryBooks: 3})
	require.NoError(t, store.Create(ctx, ticket))

	found, err := store.Find(ctx, ticket.Key)
	require.NoError(t, err)
	assert.Equal(t, ticket.Key, found.Key)
	assert.Equal(t, 3, found.Limits[domain.CategoryBooks])

	// Find returns a copy, not the stored ticket.
	found.Used[domain.CategoryBooks] = 99
	again, err := store.Find(ctx, ticket.Key)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Used[domain.CategoryBooks])

	_, err = store.Find(ctx, "GK-ZZZZZ-250101")
	assert.ErrorIs(t, err, ErrTicketNotFound)

	err = store.Create(ctx, newTicket(ticket.Key, map[domain.Category]int{domain.CategoryBooks: 1}))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMemoryStoreAtomicConsume(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	ticket := newTicket("GK-AAAAA-250101", map[domain.Category]int{domain.CategoryBooks: 2})
	require.NoError(t, store.Create(ctx, ticket))

	updated, err := store.AtomicConsume(ctx, ticket.Key, domain.CategoryBooks)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Used[domain.CategoryBooks])

	_, err = store.AtomicConsume(ctx, ticket.Key, domain.CategoryBooks)
	require.NoError(t, err)

	_, err = store.AtomicConsume(ctx, ticket.Key, domain.CategoryBooks)
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = store.AtomicConsume(ctx, ticket.Key, domain.CategoryMovies)
	assert.ErrorIs(t, err, ErrNoMatch)

	require.NoError(t, store.UpdateStatus(ctx, ticket.Key, domain.TicketStatusBlocked))
	_, err = store.AtomicConsume(ctx, ticket.Key, domain.CategoryBooks)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMemoryStoreConcurrentConsumeNeverOversells(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	const quota = 20
	const workers = 50

	ticket := newTicket("GK-AAAAA-250101", map[domain.Category]int{domain.CategoryMusic: quota})
	require.NoError(t, store.Create(ctx, ticket))

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AtomicConsume(ctx, ticket.Key, domain.CategoryMusic)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, denied int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrNoMatch):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, quota, succeeded)
	assert.Equal(t, workers-quota, denied)

	found, err := store.Find(ctx, ticket.Key)
	require.NoError(t, err)
	assert.Equal(t, quota, found.Used[domain.CategoryMusic])
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	ticket := newTicket("GK-AAAAA-250101", map[domain.Category]int{domain.CategoryBooks: 5})
	require.NoError(t, store.Create(ctx, ticket))

	store.SetClock(func() time.Time { return time.Now().Add(48 * time.Hour) })

	_, err := store.Find(ctx, ticket.Key)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	_, err = store.AtomicConsume(ctx, ticket.Key, domain.CategoryBooks)
	assert.ErrorIs(t, err, ErrNoMatch)

	err = store.UpdateStatus(ctx, ticket.Key, domain.TicketStatusBlocked)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
