package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var calls []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.TicketID)
		return boom
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventCommentAdded, func(context.Context, Event) error {
		calls = append(calls, "comment")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first:t1", "second:t1"}, calls)
}

func TestDispatcher_PublishWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventCommentAdded}))
}
