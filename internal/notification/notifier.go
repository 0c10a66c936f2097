package notification

import "context"

// Tag classifies a notification for the client.
type Tag string

const (
	TagNew    Tag = "NEW"
	TagUpdate Tag = "UPDATE"
)

// Payload is one notification. It is built per call and never shared.
type Payload struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
	Tag     Tag    `json:"tag"`
}

// Notifier delivers notifications to moderators or to a single user.
type Notifier interface {
	NotifyModerators(ctx context.Context, payload Payload) error
	NotifyUser(ctx context.Context, userID string, payload Payload) error
}
