package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/events"
	"github.com/supportdesk/ticket-service/internal/repository"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

// CommentService manages comments and votes nested in a ticket.
type CommentService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewCommentService constructs the service.
func NewCommentService(deps TicketDependencies) *CommentService {
	return &CommentService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

var errForbiddenComment = apperrors.NewForbidden("Only the comment author, a moderator or an admin can change this comment")

// CreateComment appends a comment by actor and notifies the ticket creator. Any
// authenticated user may comment.
func (s *CommentService) CreateComment(ctx context.Context, actor *domain.User, ticketID, content string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID("ticket", ticketID)
	if err != nil {
		return nil, err
	}

	commentID := uuid.NewString()
	ticket, err := mutateTicket(ctx, s.tickets, ticketID, func(t *domain.Ticket) error {
		if err := requireContent(content); err != nil {
			return err
		}
		t.AddComment(domain.NewComment(commentID, content, actor, s.now().UTC()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.CommentAddedPayload{
			CommentID:       commentID,
			TicketNumber:    ticket.Number,
			TicketTitle:     ticket.Title,
			TicketCreatorID: ticket.CreatedBy.UserID,
		},
	})
	return ticket, nil
}

// ListComments returns the comments of a ticket in insertion order.
func (s *CommentService) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	ticketID, err := parseID("ticket", ticketID)
	if err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Comments == nil {
		return []domain.Comment{}, nil
	}
	return ticket.Comments, nil
}

// EditComment replaces the content of a comment. Comment edits are not recorded in history.
func (s *CommentService) EditComment(ctx context.Context, actor *domain.User, ticketID, commentID, content string) (*domain.Comment, error) {
	ticketID, commentID, err := parseCommentIDs(ticketID, commentID)
	if err != nil {
		return nil, err
	}

	ticket, err := mutateTicket(ctx, s.tickets, ticketID, func(t *domain.Ticket) error {
		comment, ok := t.FindComment(commentID)
		if !ok {
			return apperrors.NewNotFound("Comment", nil)
		}
		if !domain.CanModifyComment(comment, actor) {
			return errForbiddenComment
		}
		if err := requireContent(content); err != nil {
			return err
		}
		comment.Edit(content, s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	comment, _ := ticket.FindComment(commentID)
	return comment, nil
}

// DeleteComment removes a comment from its ticket.
func (s *CommentService) DeleteComment(ctx context.Context, actor *domain.User, ticketID, commentID string) (*domain.Ticket, error) {
	ticketID, commentID, err := parseCommentIDs(ticketID, commentID)
	if err != nil {
		return nil, err
	}
	return mutateTicket(ctx, s.tickets, ticketID, func(t *domain.Ticket) error {
		comment, ok := t.FindComment(commentID)
		if !ok {
			return apperrors.NewNotFound("Comment", nil)
		}
		if !domain.CanModifyComment(comment, actor) {
			return errForbiddenComment
		}
		t.RemoveComment(commentID)
		return nil
	})
}

// ToggleUpvote flips actor's upvote on a comment.
func (s *CommentService) ToggleUpvote(ctx context.Context, actor *domain.User, ticketID, commentID string) (*domain.Ticket, error) {
	return s.vote(ctx, actor, ticketID, commentID, (*domain.Comment).ToggleUpvote)
}

// ToggleDownvote flips actor's downvote on a comment.
func (s *CommentService) ToggleDownvote(ctx context.Context, actor *domain.User, ticketID, commentID string) (*domain.Ticket, error) {
	return s.vote(ctx, actor, ticketID, commentID, (*domain.Comment).ToggleDownvote)
}

func (s *CommentService) vote(ctx context.Context, actor *domain.User, ticketID, commentID string, toggle func(*domain.Comment, string)) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticketID, commentID, err := parseCommentIDs(ticketID, commentID)
	if err != nil {
		return nil, err
	}
	return mutateTicket(ctx, s.tickets, ticketID, func(t *domain.Ticket) error {
		comment, ok := t.FindComment(commentID)
		if !ok {
			return apperrors.NewNotFound("Comment", nil)
		}
		toggle(comment, actor.ID)
		return nil
	})
}

func requireContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.NewInvalidRequest("Comment content is required", nil)
	}
	return nil
}

func parseCommentIDs(ticketID, commentID string) (string, string, error) {
	ticketID, err := parseID("ticket", ticketID)
	if err != nil {
		return "", "", err
	}
	commentID, err = parseID("comment", commentID)
	if err != nil {
		return "", "", err
	}
	return ticketID, commentID, nil
}
