package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/events"
)

// NotificationService reacts to gatekeeper events. Quota exhaustion and
// ticket status changes are the signals an operator cares about.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	webhookURL string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, webhookURL string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		webhookURL: webhookURL,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketIssued, n.handleTicketIssued)
	n.dispatcher.Subscribe(events.EventTicketBlocked, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventQuotaConsumed, n.handleQuotaConsumed)
	n.dispatcher.Subscribe(events.EventQuotaExhausted, n.handleQuotaExhausted)
}

func (n *NotificationService) handleTicketIssued(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketIssued", zap.String("key", event.TicketKey), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("key", event.TicketKey), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleQuotaConsumed(_ context.Context, event events.Event) error {
	n.logger.Debug("QuotaConsumed",
		zap.String("key", event.TicketKey),
		zap.String("category", string(event.Category)),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleQuotaExhausted(ctx context.Context, event events.Event) error {
	n.logger.Info("QuotaExhausted",
		zap.String("key", event.TicketKey),
		zap.String("category", string(event.Category)))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.webhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.webhookURL),
		zap.String("key", event.TicketKey),
		zap.String("event_type", string(event.Type)))
}
