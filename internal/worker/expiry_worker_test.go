package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/domain"
	"github.com/moodshelf/recs-gateway/internal/repository"
)

func TestSweepRemovesExpiredTickets(t *testing.T) {
	store := repository.NewMemoryTicketStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &domain.AccessTicket{
		Key:       "GK-AAAAA-250101",
		Status:    domain.TicketStatusActive,
		Limits:    map[domain.Category]int{domain.CategoryBooks: 1},
		Used:      map[domain.Category]int{domain.CategoryBooks: 0},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.Create(ctx, &domain.AccessTicket{
		Key:       "GK-BBBBB-250101",
		Status:    domain.TicketStatusActive,
		Limits:    map[domain.Category]int{domain.CategoryBooks: 1},
		Used:      map[domain.Category]int{domain.CategoryBooks: 0},
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	w := NewExpiryWorker(store, time.Minute, zap.NewNop())
	w.sweep(ctx)

	_, err := store.Find(ctx, "GK-AAAAA-250101")
	assert.NoError(t, err)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := repository.NewMemoryTicketStore()
	w := NewExpiryWorker(store, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
