package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/supportdesk/ticket-service/internal/notification"
	"github.com/supportdesk/ticket-service/internal/observability"
)

const (
	audienceModerators = "moderators"
	audienceUser       = "user"

	deliveryTimeout = 5 * time.Second
)

var (
	// ErrQueueFull is returned when the delivery queue cannot take another notification.
	ErrQueueFull = errors.New("notification queue full")
	// ErrStopped is returned after Stop.
	ErrStopped = errors.New("notification worker stopped")
)

type job struct {
	audience string
	userID   string
	payload  notification.Payload
}

// NotificationWorker queues notifications and delivers them through next on a pool of
// goroutines, so slow delivery never holds up a request.
type NotificationWorker struct {
	next    notification.Notifier
	logger  *zap.Logger
	metrics *observability.Metrics

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewNotificationWorker creates a worker in front of next.
func NewNotificationWorker(next notification.Notifier, logger *zap.Logger, metrics *observability.Metrics, queueSize int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &NotificationWorker{
		next:    next,
		logger:  logger,
		metrics: metrics,
		jobs:    make(chan job, queueSize),
	}
}

// Start launches the delivery goroutines.
func (w *NotificationWorker) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	w.logger.Info("notification worker started", zap.Int("workers", workers), zap.Int("queue_size", cap(w.jobs)))
}

// Stop stops accepting notifications and waits until the queue is drained or ctx ends.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *NotificationWorker) NotifyModerators(_ context.Context, payload notification.Payload) error {
	return w.enqueue(job{audience: audienceModerators, payload: payload})
}

func (w *NotificationWorker) NotifyUser(_ context.Context, userID string, payload notification.Payload) error {
	return w.enqueue(job{audience: audienceUser, userID: userID, payload: payload})
}

func (w *NotificationWorker) enqueue(j job) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrStopped
	}
	select {
	case w.jobs <- j:
		return nil
	default:
		w.metrics.RecordNotification(j.audience, ErrQueueFull)
		return ErrQueueFull
	}
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for j := range w.jobs {
		w.deliver(j)
	}
}

func (w *NotificationWorker) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	var err error
	switch j.audience {
	case audienceModerators:
		err = w.next.NotifyModerators(ctx, j.payload)
	default:
		err = w.next.NotifyUser(ctx, j.userID, j.payload)
	}
	w.metrics.RecordNotification(j.audience, err)
	if err != nil {
		w.logger.Error("notification delivery failed",
			zap.String("audience", j.audience),
			zap.String("user_id", j.userID),
			zap.String("heading", j.payload.Heading),
			zap.Error(err))
	}
}
