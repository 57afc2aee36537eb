package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/repository"
)

// ExpiryWorker periodically removes tickets past their expiry. Lookups
// already filter expired tickets, so the sweep only reclaims storage; a
// missed tick never changes observable behavior.
type ExpiryWorker struct {
	store    repository.TicketStore
	interval time.Duration
	logger   *zap.Logger
}

// NewExpiryWorker builds the worker.
func NewExpiryWorker(store repository.TicketStore, interval time.Duration, logger *zap.Logger) *ExpiryWorker {
	return &ExpiryWorker{store: store, interval: interval, logger: logger}
}

// Run sweeps until the context is cancelled.
func (w *ExpiryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	removed, err := w.store.DeleteExpired(ctx)
	if err != nil {
		w.logger.Warn("expiry sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		w.logger.Info("expired tickets removed", zap.Int64("count", removed))
	}
}
