package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/supportdesk/ticket-service/internal/notification"
	"github.com/supportdesk/ticket-service/internal/observability"
)

type recordingNotifier struct {
	mu         sync.Mutex
	moderators []notification.Payload
	users      map[string][]notification.Payload
	fail       error
	block      chan struct{}
}

func (r *recordingNotifier) NotifyModerators(_ context.Context, p notification.Payload) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moderators = append(r.moderators, p)
	return r.fail
}

func (r *recordingNotifier) NotifyUser(_ context.Context, userID string, p notification.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users == nil {
		r.users = make(map[string][]notification.Payload)
	}
	r.users[userID] = append(r.users[userID], p)
	return r.fail
}

func TestNotificationWorker_DeliversAndDrains(t *testing.T) {
	next := &recordingNotifier{}
	metrics := observability.NewMetrics("test")
	w := NewNotificationWorker(next, zap.NewNop(), metrics, 16)
	w.Start(3)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, w.NotifyModerators(ctx, notification.Payload{Heading: "h", Tag: notification.TagNew}))
	}
	require.NoError(t, w.NotifyUser(ctx, "u1", notification.Payload{Heading: "c", Tag: notification.TagNew}))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))

	assert.Len(t, next.moderators, 5)
	assert.Len(t, next.users["u1"], 1)
	assert.Equal(t, float64(5), testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("moderators", "ok")))
	assert.ErrorIs(t, w.NotifyUser(ctx, "u1", notification.Payload{}), ErrStopped)
}

func TestNotificationWorker_RecordsFailures(t *testing.T) {
	next := &recordingNotifier{fail: errors.New("redis down")}
	metrics := observability.NewMetrics("test")
	w := NewNotificationWorker(next, zap.NewNop(), metrics, 4)
	w.Start(1)

	require.NoError(t, w.NotifyUser(context.Background(), "u1", notification.Payload{Heading: "c"}))
	require.NoError(t, w.Stop(context.Background()))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("user", "error")))
}

func TestNotificationWorker_QueueFull(t *testing.T) {
	next := &recordingNotifier{block: make(chan struct{})}
	w := NewNotificationWorker(next, zap.NewNop(), nil, 1)

	// Not started: the single slot fills and the next enqueue is rejected.
	require.NoError(t, w.NotifyModerators(context.Background(), notification.Payload{}))
	assert.ErrorIs(t, w.NotifyModerators(context.Background(), notification.Payload{}), ErrQueueFull)

	close(next.block)
	w.Start(1)
	require.NoError(t, w.Stop(context.Background()))
	assert.Len(t, next.moderators, 1)
}
