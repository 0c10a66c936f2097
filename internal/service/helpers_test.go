package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/events"
	"github.com/supportdesk/ticket-service/internal/notification"
	"github.com/supportdesk/ticket-service/internal/repository"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

type sentNotification struct {
	UserID  string
	Payload notification.Payload
}

type recordingNotifier struct {
	mu         sync.Mutex
	moderators []notification.Payload
	users      []sentNotification
}

func (r *recordingNotifier) NotifyModerators(_ context.Context, p notification.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moderators = append(r.moderators, p)
	return nil
}

func (r *recordingNotifier) NotifyUser(_ context.Context, userID string, p notification.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, sentNotification{UserID: userID, Payload: p})
	return nil
}

type fixture struct {
	tickets   *repository.MemoryTicketRepository
	users     *repository.MemoryUserRepository
	notifier  *recordingNotifier
	ticketSvc *TicketService
	comments  *CommentService
	mods      *ModeratorService

	creator   *domain.User
	other     *domain.User
	moderator *domain.User
	admin     *domain.User
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tickets:  repository.NewMemoryTicketRepository(nil),
		users:    repository.NewMemoryUserRepository(nil),
		notifier: &recordingNotifier{},
	}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, f.notifier, nil).RegisterHandlers()

	clock := func() time.Time { return fixedNow }
	deps := TicketDependencies{TicketRepo: f.tickets, Dispatcher: dispatcher, Clock: clock}
	f.ticketSvc = NewTicketService(deps)
	f.comments = NewCommentService(deps)
	f.mods = NewModeratorService(f.users, clock)

	f.creator = f.addUser(t, "Ada", "Lovelace", false, false, 0)
	f.other = f.addUser(t, "Alan", "Turing", false, false, 1)
	f.moderator = f.addUser(t, "Grace", "Hopper", false, true, 2)
	f.admin = f.addUser(t, "Root", "Admin", true, false, 3)
	return f
}

func (f *fixture) addUser(t *testing.T, first, last string, admin, moderator bool, offset int) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:                 uuid.NewString(),
		Name:               domain.PersonName{FirstName: first, LastName: last},
		Email:              first + "@example.com",
		Info:               domain.UserInfo{About: domain.About{ShortDescription: "dev", Designation: "engineer", Location: "remote"}},
		IsAdmin:            admin,
		IsTicketsModerator: moderator,
		CreatedAt:          fixedNow.Add(time.Duration(offset) * time.Second),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) createTicket(t *testing.T, tags ...string) *domain.Ticket {
	t.Helper()
	ticket, err := f.ticketSvc.CreateTicket(context.Background(), f.creator, TicketCreateInput{
		Title:            "Printer on fire",
		ShortDescription: "the printer",
		Content:          "smoke everywhere",
		Tags:             tags,
	})
	require.NoError(t, err)
	return ticket
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperrors.ToDomainError(err).Code, "unexpected error: %v", err)
}

func strp(s string) *string { return &s }
