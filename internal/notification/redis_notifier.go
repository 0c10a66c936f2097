package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is the envelope stored in a recipient list and published on the channel.
type Message struct {
	Audience string    `json:"audience"`
	UserID   string    `json:"user_id,omitempty"`
	Payload  Payload   `json:"payload"`
	SentAt   time.Time `json:"sent_at"`
}

// RedisNotifier keeps the most recent notifications of each recipient in a Redis list and
// publishes every notification on a channel for live consumers.
type RedisNotifier struct {
	client    redis.Cmdable
	channel   string
	listLimit int64
	now       func() time.Time
}

// NewRedisNotifier creates a notifier on client. listLimit caps each recipient list; zero
// keeps every entry.
func NewRedisNotifier(client redis.Cmdable, channel string, listLimit int64) *RedisNotifier {
	return &RedisNotifier{
		client:    client,
		channel:   channel,
		listLimit: listLimit,
		now:       time.Now,
	}
}

func (n *RedisNotifier) NotifyModerators(ctx context.Context, payload Payload) error {
	return n.deliver(ctx, n.moderatorsKey(), Message{Audience: "moderators", Payload: payload})
}

func (n *RedisNotifier) NotifyUser(ctx context.Context, userID string, payload Payload) error {
	return n.deliver(ctx, n.userKey(userID), Message{Audience: "user", UserID: userID, Payload: payload})
}

func (n *RedisNotifier) moderatorsKey() string {
	return n.channel + ":moderators"
}

func (n *RedisNotifier) userKey(userID string) string {
	return n.channel + ":user:" + userID
}

func (n *RedisNotifier) deliver(ctx context.Context, key string, msg Message) error {
	msg.SentAt = n.now().UTC()
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	pipe := n.client.TxPipeline()
	pipe.LPush(ctx, key, body)
	if n.listLimit > 0 {
		pipe.LTrim(ctx, key, 0, n.listLimit-1)
	}
	pipe.Publish(ctx, n.channel, body)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deliver notification to %s: %w", key, err)
	}
	return nil
}
