package dto

import (
	"github.com/supportdesk/ticket-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"shortDescription"`
	Content          string   `json:"content"`
	Status           string   `json:"status"`
	Tags             []string `json:"tags"`
}

// EditTicketRequest names the edited field in Type and carries exactly that field.
type EditTicketRequest struct {
	Type             string  `json:"type"`
	Content          *string `json:"content"`
	ShortDescription *string `json:"shortDescription"`
	Title            *string `json:"title"`
	Status           *string `json:"status"`
}

// SetTagsRequest replaces the tag set.
type SetTagsRequest struct {
	Tags []string `json:"tags"`
}

// CommentRequest payload for creating and editing comments.
type CommentRequest struct {
	Content string `json:"content"`
}

// TicketResponse wraps a full ticket.
type TicketResponse struct {
	Ticket *domain.Ticket `json:"ticket"`
}

// TicketListResponse wraps the listing view.
type TicketListResponse struct {
	Tickets []domain.TicketSummary `json:"tickets"`
}

// CommentResponse wraps a single comment.
type CommentResponse struct {
	Comment *domain.Comment `json:"comment"`
}

// CommentListResponse wraps the comments of a ticket.
type CommentListResponse struct {
	Comments []domain.Comment `json:"comments"`
}
