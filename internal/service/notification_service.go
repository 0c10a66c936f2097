package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/supportdesk/ticket-service/internal/events"
	"github.com/supportdesk/ticket-service/internal/notification"
)

const (
	headingNewTicket  = "New Support Ticket!"
	headingNewComment = "New Comment on Ticket!"
)

// NotificationService turns domain events into notifications. Every payload is built
// for the event at hand; nothing is shared between calls.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   notification.Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier notification.Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     loggerOrNop(logger),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.notifier == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload := notification.Payload{
		Heading: headingNewTicket,
		Content: fmt.Sprintf("%s created a new Support Ticket!", event.Actor.Name),
		Tag:     notification.TagNew,
	}
	n.logger.Debug("notifying moderators", zap.String("ticket_id", event.TicketID))
	if err := n.notifier.NotifyModerators(ctx, payload); err != nil {
		return fmt.Errorf("notify moderators: %w", err)
	}
	return nil
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	data, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	payload := notification.Payload{
		Heading: headingNewComment,
		Content: fmt.Sprintf("%s commented on your Ticket!", event.Actor.Name),
		Tag:     notification.TagNew,
	}
	n.logger.Debug("notifying ticket creator",
		zap.String("ticket_id", event.TicketID),
		zap.String("user_id", data.TicketCreatorID))
	if err := n.notifier.NotifyUser(ctx, data.TicketCreatorID, payload); err != nil {
		return fmt.Errorf("notify ticket creator %s: %w", data.TicketCreatorID, err)
	}
	return nil
}
