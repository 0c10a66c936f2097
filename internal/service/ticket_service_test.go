package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/notification"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

func TestCreateTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, "bug", "bug", "ui")

	assert.Equal(t, int64(1), ticket.Number)
	assert.Equal(t, domain.StatusOpen, ticket.Status)
	assert.Equal(t, []string{"bug", "ui"}, ticket.Tags.Values())
	assert.Equal(t, f.creator.Snapshot(), ticket.CreatedBy)
	assert.Equal(t, fixedNow, ticket.CreatedAt)
	assert.Equal(t, fixedNow, ticket.UpdatedAt)
	assert.Empty(t, ticket.History)

	require.Len(t, f.notifier.moderators, 1)
	assert.Equal(t, notification.Payload{
		Heading: "New Support Ticket!",
		Content: "Ada Lovelace created a new Support Ticket!",
		Tag:     notification.TagNew,
	}, f.notifier.moderators[0])
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ticketSvc.CreateTicket(ctx, f.creator, TicketCreateInput{Title: "  "})
	requireCode(t, err, apperrors.CodeInvalidRequest)

	_, err = f.ticketSvc.CreateTicket(ctx, f.creator, TicketCreateInput{Title: "x", Status: "pending"})
	requireCode(t, err, apperrors.CodeInvalidRequest)

	_, err = f.ticketSvc.CreateTicket(ctx, f.creator, TicketCreateInput{Title: "x", Tags: []string{"ok", " "}})
	requireCode(t, err, apperrors.CodeInvalidRequest)

	ticket, err := f.ticketSvc.CreateTicket(ctx, f.creator, TicketCreateInput{Title: "x", Status: "in-progress"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, ticket.Status)
	assert.Equal(t, int64(1), ticket.Number, "rejected creates must not consume numbers")
}

func TestTicketNumbering(t *testing.T) {
	t.Run("sequential", func(t *testing.T) {
		f := newFixture(t)
		for i := 1; i <= 5; i++ {
			assert.Equal(t, int64(i), f.createTicket(t).Number)
		}
	})

	t.Run("never reused after delete", func(t *testing.T) {
		f := newFixture(t)
		first := f.createTicket(t)
		_, err := f.ticketSvc.DeleteTicket(context.Background(), f.creator, first.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), f.createTicket(t).Number)
	})

	t.Run("concurrent", func(t *testing.T) {
		f := newFixture(t)
		const n = 40
		numbers := make([]int64, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ticket, err := f.ticketSvc.CreateTicket(context.Background(), f.creator, TicketCreateInput{Title: "t"})
				if assert.NoError(t, err) {
					numbers[i] = ticket.Number
				}
			}(i)
		}
		wg.Wait()

		sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
		for i, n := range numbers {
			assert.Equal(t, int64(i+1), n)
		}
	})
}

func TestListSummaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createTicket(t, "bug")
	f.createTicket(t)
	_, err := f.comments.CreateComment(ctx, f.other, first.ID, "me too")
	require.NoError(t, err)

	summaries, err := f.ticketSvc.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(1), summaries[0].Number)
	assert.Equal(t, 1, summaries[0].CommentCount)
	assert.Equal(t, domain.Author{ID: f.creator.ID, Name: "Ada Lovelace"}, summaries[0].CreatedBy)
	assert.Equal(t, 0, summaries[1].CommentCount)
}

func TestGetTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t)

	got, err := f.ticketSvc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	_, err = f.ticketSvc.GetTicket(ctx, "not-a-uuid")
	requireCode(t, err, apperrors.CodeInvalidID)

	_, err = f.ticketSvc.GetTicket(ctx, uuid.NewString())
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestEditTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t)

	edited, err := f.ticketSvc.EditTicket(ctx, f.creator, ticket.ID, TicketEditInput{Type: "title", Title: strp("Printer fixed")})
	require.NoError(t, err)
	assert.Equal(t, "Printer fixed", edited.Title)

	edited, err = f.ticketSvc.EditTicket(ctx, f.moderator, ticket.ID, TicketEditInput{Type: "status", Status: strp("resolved")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, edited.Status)

	require.Len(t, edited.History, 2)
	assert.Equal(t, domain.HistoryStatus, edited.History[0].Type)
	assert.Equal(t, f.moderator.Ref(), edited.History[0].UpdatedBy)
	assert.Equal(t, domain.HistoryTitle, edited.History[1].Type)
	assert.Equal(t, &domain.TitleChange{Old: "Printer on fire", New: "Printer fixed"}, edited.History[1].Title)

	stored, err := f.ticketSvc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 2)
}

func TestEditTicketRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t)

	tests := []struct {
		name  string
		actor *domain.User
		id    string
		input TicketEditInput
		code  string
	}{
		{name: "invalid id", actor: f.creator, id: "123", input: TicketEditInput{Type: "title", Title: strp("x")}, code: apperrors.CodeInvalidID},
		{name: "missing ticket", actor: f.creator, id: uuid.NewString(), input: TicketEditInput{Type: "title", Title: strp("x")}, code: apperrors.CodeNotFound},
		{name: "ordinary user", actor: f.other, id: ticket.ID, input: TicketEditInput{Type: "title", Title: strp("x")}, code: apperrors.CodeForbidden},
		{name: "unknown type", actor: f.creator, id: ticket.ID, input: TicketEditInput{Type: "priority", Title: strp("x")}, code: apperrors.CodeInvalidRequest},
		{name: "field missing", actor: f.creator, id: ticket.ID, input: TicketEditInput{Type: "content"}, code: apperrors.CodeInvalidRequest},
		{name: "extra field", actor: f.creator, id: ticket.ID, input: TicketEditInput{Type: "content", Content: strp("c"), Title: strp("t")}, code: apperrors.CodeInvalidRequest},
		{name: "bad status", actor: f.creator, id: ticket.ID, input: TicketEditInput{Type: "status", Status: strp("done")}, code: apperrors.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ticketSvc.EditTicket(ctx, tt.actor, tt.id, tt.input)
			requireCode(t, err, tt.code)
		})
	}

	stored, err := f.ticketSvc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.History)
	assert.Equal(t, "Printer on fire", stored.Title)
}

func TestTicketPermissionMatrix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	actors := []struct {
		name    string
		actor   *domain.User
		allowed bool
	}{
		{name: "creator", actor: f.creator, allowed: true},
		{name: "moderator", actor: f.moderator, allowed: true},
		{name: "admin", actor: f.admin, allowed: true},
		{name: "other user", actor: f.other, allowed: false},
	}
	ops := map[string]func(actor *domain.User, id string) error{
		"edit": func(actor *domain.User, id string) error {
			_, err := f.ticketSvc.EditTicket(ctx, actor, id, TicketEditInput{Type: "content", Content: strp("new")})
			return err
		},
		"setTags": func(actor *domain.User, id string) error {
			_, err := f.ticketSvc.SetTags(ctx, actor, id, []string{"x"})
			return err
		},
		"addTag": func(actor *domain.User, id string) error {
			_, err := f.ticketSvc.AddTag(ctx, actor, id, "new")
			return err
		},
		"removeTag": func(actor *domain.User, id string) error {
			_, err := f.ticketSvc.RemoveTag(ctx, actor, id, "bug")
			return err
		},
		"delete": func(actor *domain.User, id string) error {
			_, err := f.ticketSvc.DeleteTicket(ctx, actor, id)
			return err
		},
	}

	for opName, op := range ops {
		for _, a := range actors {
			t.Run(opName+"/"+a.name, func(t *testing.T) {
				ticket := f.createTicket(t, "bug")
				err := op(a.actor, ticket.ID)
				if a.allowed {
					assert.NoError(t, err)
				} else {
					requireCode(t, err, apperrors.CodeForbidden)
				}
			})
		}
	}
}

func TestTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, "bug")

	t.Run("add records history", func(t *testing.T) {
		got, err := f.ticketSvc.AddTag(ctx, f.creator, ticket.ID, "urgent")
		require.NoError(t, err)
		assert.Equal(t, []string{"bug", "urgent"}, got.Tags.Values())
		require.Len(t, got.History, 1)
		assert.Equal(t, domain.HistoryAddTag, got.History[0].Type)
		assert.Equal(t, "urgent", *got.History[0].Tag)
	})

	t.Run("adding a present tag is a no-op", func(t *testing.T) {
		got, err := f.ticketSvc.AddTag(ctx, f.creator, ticket.ID, "urgent")
		require.NoError(t, err)
		assert.Equal(t, []string{"bug", "urgent"}, got.Tags.Values())
		assert.Len(t, got.History, 1)
	})

	t.Run("remove records history", func(t *testing.T) {
		got, err := f.ticketSvc.RemoveTag(ctx, f.creator, ticket.ID, "urgent")
		require.NoError(t, err)
		assert.Equal(t, []string{"bug"}, got.Tags.Values())
		require.Len(t, got.History, 2)
		assert.Equal(t, domain.HistoryRemoveTag, got.History[0].Type)
	})

	t.Run("remove absent tag", func(t *testing.T) {
		_, err := f.ticketSvc.RemoveTag(ctx, f.creator, ticket.ID, "urgent")
		requireCode(t, err, apperrors.CodeTagNotFound)
	})

	t.Run("blank tag", func(t *testing.T) {
		_, err := f.ticketSvc.AddTag(ctx, f.creator, ticket.ID, " ")
		requireCode(t, err, apperrors.CodeInvalidRequest)
	})

	t.Run("set tags replaces without history", func(t *testing.T) {
		got, err := f.ticketSvc.SetTags(ctx, f.moderator, ticket.ID, []string{"a", "b", "a"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got.Tags.Values())
		assert.Len(t, got.History, 2)
	})
}

func TestDeleteTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t)

	deleted, err := f.ticketSvc.DeleteTicket(ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, deleted.ID)

	_, err = f.ticketSvc.GetTicket(ctx, ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = f.ticketSvc.DeleteTicket(ctx, f.admin, ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestConcurrentEditsKeepAllHistory(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t)

	const writers = maxUpdateAttempts
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ticketSvc.EditTicket(context.Background(), f.moderator, ticket.ID, TicketEditInput{Type: "content", Content: strp("c")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.ticketSvc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, stored.History, writers)
}
