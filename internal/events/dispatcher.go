package events

import (
	"context"
	"errors"
	"sync"
)

// Handler consumes one gatekeeper event.
type Handler func(context.Context, Event) error

// Dispatcher publishes gatekeeper events to subscribed handlers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler)
}

// InMemoryDispatcher fans events out in process, synchronously, in
// subscription order. Issuance and quota consumption publish through it
// so notifications never put a broker on the request path.
type InMemoryDispatcher struct {
	mu   sync.RWMutex
	subs map[EventType][]Handler
}

// NewInMemoryDispatcher creates an empty dispatcher.
func NewInMemoryDispatcher() *InMemoryDispatcher {
	return &InMemoryDispatcher{
		subs: make(map[EventType][]Handler),
	}
}

// Publish runs every handler subscribed to the event's type. A failing
// handler does not stop the rest; their errors come back joined.
func (d *InMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := make([]Handler, len(d.subs[event.Type]))
	copy(handlers, d.subs[event.Type])
	d.mu.RUnlock()

	var errs []error
	for _, handle := range handlers {
		if err := handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type.
func (d *InMemoryDispatcher) Subscribe(eventType EventType, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[eventType] = append(d.subs[eventType], handler)
}
