package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/events"
	"github.com/supportdesk/ticket-service/internal/repository"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

// maxUpdateAttempts bounds the re-read and re-apply loop on version conflicts.
const maxUpdateAttempts = 8

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket and comment services.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Clock overrides time.Now, mostly for tests.
	Clock func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title            string
	ShortDescription string
	Content          string
	Status           string
	Tags             []string
}

// TicketEditInput describes a single-field edit. Exactly the field named by Type must be set.
type TicketEditInput struct {
	Type             string
	Content          *string
	ShortDescription *string
	Title            *string
	Status           *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

// CreateTicket creates a ticket owned by actor and notifies the moderators.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewInvalidRequest("Title is required", nil)
	}
	status := domain.StatusOpen
	if strings.TrimSpace(input.Status) != "" {
		parsed, err := domain.ParseStatus(input.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	tags, err := normalizeTags(input.Tags)
	if err != nil {
		return nil, err
	}

	number, err := s.tickets.NextNumber(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	now := s.now().UTC()
	ticket := &domain.Ticket{
		ID:               uuid.NewString(),
		Number:           number,
		Title:            title,
		ShortDescription: strings.TrimSpace(input.ShortDescription),
		Content:          input.Content,
		Status:           status,
		CreatedBy:        actor.Snapshot(),
		Tags:             domain.NewStringSet(tags...),
		History:          []domain.HistoryItem{},
		Comments:         []domain.Comment{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, storageError(err)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketCreatedPayload{
			Number:           ticket.Number,
			Title:            ticket.Title,
			ShortDescription: ticket.ShortDescription,
		},
	})
	return ticket, nil
}

// ListSummaries returns the listing view of every ticket ordered by number.
func (s *TicketService) ListSummaries(ctx context.Context) ([]domain.TicketSummary, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	summaries := make([]domain.TicketSummary, 0, len(tickets))
	for i := range tickets {
		summaries = append(summaries, tickets[i].Summary())
	}
	return summaries, nil
}

// GetTicket returns the full ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	id, err := parseID("ticket", id)
	if err != nil {
		return nil, err
	}
	return loadTicket(ctx, s.tickets, id)
}

// EditTicket changes one of content, shortDescription, title or status.
func (s *TicketService) EditTicket(ctx context.Context, actor *domain.User, id string, input TicketEditInput) (*domain.Ticket, error) {
	id, err := parseID("ticket", id)
	if err != nil {
		return nil, err
	}
	return mutateTicket(ctx, s.tickets, id, func(t *domain.Ticket) error {
		if !domain.IsCreatorModeratorAdmin(t, actor) {
			return errForbiddenTicket
		}
		kind, value, err := editValue(input)
		if err != nil {
			return err
		}
		return t.EditField(kind, value, actor, s.now().UTC())
	})
}

// DeleteTicket removes the ticket and returns it as it was before deletion.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, id string) (*domain.Ticket, error) {
	id, err := parseID("ticket", id)
	if err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, id)
	if err != nil {
		return nil, err
	}
	if !domain.IsCreatorModeratorAdmin(ticket, actor) {
		return nil, errForbiddenTicket
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return nil, mapRepoError("Ticket", err)
	}
	return ticket, nil
}

// SetTags replaces the tag set. Bulk replacement records no history entry.
func (s *TicketService) SetTags(ctx context.Context, actor *domain.User, id string, tags []string) (*domain.Ticket, error) {
	id, err := parseID("ticket", id)
	if err != nil {
		return nil, err
	}
	return mutateTicket(ctx, s.tickets, id, func(t *domain.Ticket) error {
		if !domain.IsCreatorModeratorAdmin(t, actor) {
			return errForbiddenTicket
		}
		normalized, err := normalizeTags(tags)
		if err != nil {
			return err
		}
		t.SetTags(normalized)
		return nil
	})
}

// AddTag inserts a single tag. A tag that is already present leaves the ticket unchanged.
func (s *TicketService) AddTag(ctx context.Context, actor *domain.User, id, tag string) (*domain.Ticket, error) {
	id, err := parseID("ticket", id)
	if err != nil {
		return nil, err
	}
	return mutateTicket(ctx, s.tickets, id, func(t *domain.Ticket) error {
		if !domain.IsCreatorModeratorAdmin(t, actor) {
			return errForbiddenTicket
		}
		normalized, err := normalizeTag(tag)
		if err != nil {
			return err
		}
		if !t.AddTag(normalized, actor, s.now().UTC()) {
			return errUnchanged
		}
		return nil
	})
}

// RemoveTag deletes a single tag; removing an absent tag fails with TagNotFound.
func (s *TicketService) RemoveTag(ctx context.Context, actor *domain.User, id, tag string) (*domain.Ticket, error) {
	id, err := parseID("ticket", id)
	if err != nil {
		return nil, err
	}
	return mutateTicket(ctx, s.tickets, id, func(t *domain.Ticket) error {
		if !domain.IsCreatorModeratorAdmin(t, actor) {
			return errForbiddenTicket
		}
		normalized, err := normalizeTag(tag)
		if err != nil {
			return err
		}
		return t.RemoveTag(normalized, actor, s.now().UTC())
	})
}

var (
	errForbiddenTicket = apperrors.NewForbidden("Only the ticket creator, a moderator or an admin can change this ticket")
	// errUnchanged ends a mutation without persisting anything.
	errUnchanged = errors.New("ticket unchanged")
)

// mutateTicket loads the ticket, applies fn and persists the result, re-reading and
// re-applying fn when a concurrent writer bumped the version in between.
func mutateTicket(ctx context.Context, repo repository.TicketRepository, id string, fn func(*domain.Ticket) error) (*domain.Ticket, error) {
	for attempt := 1; ; attempt++ {
		ticket, err := loadTicket(ctx, repo, id)
		if err != nil {
			return nil, err
		}
		if err := fn(ticket); errors.Is(err, errUnchanged) {
			return ticket, nil
		} else if err != nil {
			return nil, err
		}
		err = repo.Update(ctx, ticket)
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, mapRepoError("Ticket", err)
		}
		if attempt >= maxUpdateAttempts {
			return nil, apperrors.NewConflict("Ticket was modified concurrently, retry the request", map[string]any{"id": id})
		}
	}
}

func loadTicket(ctx context.Context, repo repository.TicketRepository, id string) (*domain.Ticket, error) {
	ticket, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("Ticket", err)
	}
	return ticket, nil
}

func editValue(input TicketEditInput) (domain.HistoryType, string, error) {
	fields := map[domain.HistoryType]*string{
		domain.HistoryContent:          input.Content,
		domain.HistoryShortDescription: input.ShortDescription,
		domain.HistoryTitle:            input.Title,
		domain.HistoryStatus:           input.Status,
	}
	kind := domain.HistoryType(strings.TrimSpace(input.Type))
	value, known := fields[kind]
	if !known {
		return "", "", apperrors.NewInvalidRequest("Invalid edit type", map[string]any{
			"type":    input.Type,
			"allowed": []domain.HistoryType{domain.HistoryContent, domain.HistoryShortDescription, domain.HistoryTitle, domain.HistoryStatus},
		})
	}
	if value == nil {
		return "", "", apperrors.NewInvalidRequest(fmt.Sprintf("Field %q is required for this edit", kind), nil)
	}
	for other, v := range fields {
		if other != kind && v != nil {
			return "", "", apperrors.NewInvalidRequest(fmt.Sprintf("Only %q can be edited with this type", kind), map[string]any{"unexpected": other})
		}
	}
	if kind == domain.HistoryTitle && strings.TrimSpace(*value) == "" {
		return "", "", apperrors.NewInvalidRequest("Title is required", nil)
	}
	return kind, *value, nil
}

func normalizeTag(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", apperrors.NewInvalidRequest("Tag must not be blank", nil)
	}
	return tag, nil
}

func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized, err := normalizeTag(tag)
		if err != nil {
			return nil, err
		}
		out = append(out, normalized)
	}
	return out, nil
}

// parseID validates id as a UUID and returns its canonical form.
func parseID(resource, id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", apperrors.NewInvalidID(resource)
	}
	return parsed.String(), nil
}

func mapRepoError(resource string, err error) error {
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	default:
		return storageError(err)
	}
}

func storageError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return apperrors.NewStorageError(err)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func actorOf(user *domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Name: user.DisplayName()}
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func clockOrNow(clock func() time.Time) func() time.Time {
	if clock == nil {
		return time.Now
	}
	return clock
}
