package domain

import "time"

// HistoryType captures what changed in a history entry.
type HistoryType string

const (
	HistoryContent          HistoryType = "content"
	HistoryShortDescription HistoryType = "shortDescription"
	HistoryTitle            HistoryType = "title"
	HistoryStatus           HistoryType = "status"
	HistoryAddTag           HistoryType = "add-tag"
	HistoryRemoveTag        HistoryType = "remove-tag"
)

// TitleChange records both sides of a title edit.
type TitleChange struct {
	Old string `json:"old" bson:"old"`
	New string `json:"new" bson:"new"`
}

// HistoryItem is an immutable audit trail entry. Only the payload field matching Type is set.
type HistoryItem struct {
	Type             HistoryType  `json:"type" bson:"type"`
	Content          *string      `json:"content,omitempty" bson:"content,omitempty"`
	ShortDescription *string      `json:"shortDescription,omitempty" bson:"short_description,omitempty"`
	Title            *TitleChange `json:"title,omitempty" bson:"title,omitempty"`
	Status           *Status      `json:"status,omitempty" bson:"status,omitempty"`
	Tag              *string      `json:"tag,omitempty" bson:"tag,omitempty"`
	UpdatedBy        UserRef      `json:"updatedBy" bson:"updated_by"`
	UpdatedAt        time.Time    `json:"updatedAt" bson:"updated_at"`
}

// RecordHistory prepends item so that History stays newest-first.
func (t *Ticket) RecordHistory(item HistoryItem) {
	t.History = append([]HistoryItem{item}, t.History...)
}

func newHistoryItem(kind HistoryType, by UserRef, at time.Time) HistoryItem {
	return HistoryItem{Type: kind, UpdatedBy: by, UpdatedAt: at}
}

func strPtr(s string) *string {
	return &s
}
