package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(eventType EventType) Event {
	return Event{
		ID:        "evt-1",
		Type:      eventType,
		TicketKey: "GK-AAAAA-250101",
		Timestamp: time.Now(),
	}
}

func TestPublishRunsHandlersInSubscriptionOrder(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var order []string
	dispatcher.Subscribe(EventTicketIssued, func(context.Context, Event) error {
		order = append(order, "first")
		return nil
	})
	dispatcher.Subscribe(EventTicketIssued, func(context.Context, Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), testEvent(EventTicketIssued)))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublishFailingHandlerDoesNotStopOthers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	boom := errors.New("webhook down")

	var delivered int
	dispatcher.Subscribe(EventQuotaExhausted, func(context.Context, Event) error {
		return boom
	})
	dispatcher.Subscribe(EventQuotaExhausted, func(context.Context, Event) error {
		delivered++
		return nil
	})

	err := dispatcher.Publish(context.Background(), testEvent(EventQuotaExhausted))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, delivered)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	assert.NoError(t, dispatcher.Publish(context.Background(), testEvent(EventQuotaConsumed)))
}

func TestSubscribeIsTypeScoped(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var calls int
	dispatcher.Subscribe(EventTicketBlocked, func(context.Context, Event) error {
		calls++
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), testEvent(EventTicketIssued)))
	assert.Equal(t, 0, calls)
}
