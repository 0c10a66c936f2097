package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyModerators(_ context.Context, payload Payload) error {
	n.logger.Info("notify moderators",
		zap.String("heading", payload.Heading),
		zap.String("content", payload.Content),
		zap.String("tag", string(payload.Tag)))
	return nil
}

func (n *LogNotifier) NotifyUser(_ context.Context, userID string, payload Payload) error {
	n.logger.Info("notify user",
		zap.String("user_id", userID),
		zap.String("heading", payload.Heading),
		zap.String("content", payload.Content),
		zap.String("tag", string(payload.Tag)))
	return nil
}
