package domain

import (
	"strings"
	"time"

	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

// Status enumerates lifecycle states for tickets.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// ParseStatus validates s against the closed status set.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return st, nil
	default:
		return "", apperrors.NewInvalidRequest("Invalid status", map[string]any{
			"status":  s,
			"allowed": []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed},
		})
	}
}

// Ticket is the aggregate for support requests. Comments and history are owned by it.
type Ticket struct {
	ID               string          `json:"id"`
	Number           int64           `json:"number"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"shortDescription"`
	Content          string          `json:"content"`
	Status           Status          `json:"status"`
	CreatedBy        CreatorSnapshot `json:"createdBy"`
	Tags             StringSet       `json:"tags"`
	History          []HistoryItem   `json:"history"`
	Comments         []Comment       `json:"comments"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`

	// Version is the optimistic concurrency token checked on every update.
	Version int64 `json:"-"`
}

// EditField applies a single-field edit and records it in the history.
// kind must be one of the field history types; title edits keep the previous value.
func (t *Ticket) EditField(kind HistoryType, value string, by *User, now time.Time) error {
	item := newHistoryItem(kind, by.Ref(), now)
	switch kind {
	case HistoryContent:
		t.Content = value
		item.Content = strPtr(value)
	case HistoryShortDescription:
		t.ShortDescription = value
		item.ShortDescription = strPtr(value)
	case HistoryTitle:
		item.Title = &TitleChange{Old: t.Title, New: value}
		t.Title = value
	case HistoryStatus:
		status, err := ParseStatus(value)
		if err != nil {
			return err
		}
		t.Status = status
		item.Status = &status
	default:
		return apperrors.NewInvalidRequest("Invalid edit type", map[string]any{"type": kind})
	}
	t.RecordHistory(item)
	t.UpdatedAt = now
	return nil
}

// AddTag inserts tag. Adding a tag that is already present changes nothing and
// records no history; the return value reports whether the ticket changed.
func (t *Ticket) AddTag(tag string, by *User, now time.Time) bool {
	if t.Tags == nil {
		t.Tags = NewStringSet()
	}
	if !t.Tags.Add(tag) {
		return false
	}
	item := newHistoryItem(HistoryAddTag, by.Ref(), now)
	item.Tag = strPtr(tag)
	t.RecordHistory(item)
	t.UpdatedAt = now
	return true
}

// RemoveTag deletes tag and records it, failing when the tag is absent.
func (t *Ticket) RemoveTag(tag string, by *User, now time.Time) error {
	if !t.Tags.Remove(tag) {
		return apperrors.NewTagNotFound(tag)
	}
	item := newHistoryItem(HistoryRemoveTag, by.Ref(), now)
	item.Tag = strPtr(tag)
	t.RecordHistory(item)
	t.UpdatedAt = now
	return nil
}

// SetTags replaces the whole tag set. Bulk replacement is not recorded in the history.
func (t *Ticket) SetTags(tags []string) {
	t.Tags = NewStringSet(tags...)
}

// AddComment appends c, preserving insertion order.
func (t *Ticket) AddComment(c Comment) {
	t.Comments = append(t.Comments, c)
}

// FindComment returns a pointer into the ticket's comment slice.
func (t *Ticket) FindComment(id string) (*Comment, bool) {
	for i := range t.Comments {
		if t.Comments[i].ID == id {
			return &t.Comments[i], true
		}
	}
	return nil, false
}

// RemoveComment drops the comment with the given id and reports whether it existed.
func (t *Ticket) RemoveComment(id string) bool {
	for i := range t.Comments {
		if t.Comments[i].ID == id {
			t.Comments = append(t.Comments[:i], t.Comments[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (t *Ticket) Clone() *Ticket {
	out := *t
	out.Tags = t.Tags.Clone()
	out.History = make([]HistoryItem, len(t.History))
	copy(out.History, t.History)
	out.Comments = make([]Comment, len(t.Comments))
	for i := range t.Comments {
		out.Comments[i] = t.Comments[i].Clone()
	}
	return &out
}

// TicketSummary is the listing view; it never carries content or comment bodies.
type TicketSummary struct {
	ID               string    `json:"id"`
	Number           int64     `json:"number"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"shortDescription"`
	Status           Status    `json:"status"`
	Tags             StringSet `json:"tags"`
	CommentCount     int       `json:"commentCount"`
	CreatedBy        Author    `json:"createdBy"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Author is the {id, name} pair shown in listings.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Summary builds the listing view of t.
func (t *Ticket) Summary() TicketSummary {
	return TicketSummary{
		ID:               t.ID,
		Number:           t.Number,
		Title:            t.Title,
		ShortDescription: t.ShortDescription,
		Status:           t.Status,
		Tags:             t.Tags.Clone(),
		CommentCount:     len(t.Comments),
		CreatedBy:        Author{ID: t.CreatedBy.UserID, Name: t.CreatedBy.Name},
		CreatedAt:        t.CreatedAt,
	}
}
