package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventCommentAdded  EventType = "comment_added"
)

// Actor identifies the user that caused an event.
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number           int64  `json:"number"`
	Title            string `json:"title"`
	ShortDescription string `json:"short_description"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID       string `json:"comment_id"`
	TicketNumber    int64  `json:"ticket_number"`
	TicketTitle     string `json:"ticket_title"`
	TicketCreatorID string `json:"ticket_creator_id"`
}
