package domain

import (
	"strings"
	"time"
)

// PersonName holds the parts of a user's display name.
type PersonName struct {
	FirstName string `json:"firstName" bson:"first_name"`
	LastName  string `json:"lastName" bson:"last_name"`
}

// About is the free-form profile section of a user.
type About struct {
	ShortDescription string `json:"shortDescription" bson:"short_description"`
	Designation      string `json:"designation" bson:"designation"`
	Location         string `json:"location" bson:"location"`
}

// UserInfo groups profile sections.
type UserInfo struct {
	About About `json:"about" bson:"about"`
}

// User is a member of the user directory and the actor on every request.
type User struct {
	ID                 string
	Name               PersonName
	Email              string
	PasswordHash       string
	Info               UserInfo
	IsAdmin            bool
	IsTicketsModerator bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DisplayName joins first and last name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.Name.FirstName + " " + u.Name.LastName)
}

// Snapshot captures the actor's profile at this moment. Later profile edits do not
// change snapshots already stored on tickets and comments.
func (u *User) Snapshot() CreatorSnapshot {
	return CreatorSnapshot{
		UserID:           u.ID,
		Name:             u.DisplayName(),
		ShortDescription: u.Info.About.ShortDescription,
		Designation:      u.Info.About.Designation,
		Location:         u.Info.About.Location,
		Email:            u.Email,
	}
}

// Ref is the short {userId, name} reference stored on history entries.
func (u *User) Ref() UserRef {
	return UserRef{UserID: u.ID, Name: u.DisplayName()}
}

// CreatorSnapshot is an immutable copy of the creator's profile.
type CreatorSnapshot struct {
	UserID           string `json:"userId" bson:"user_id"`
	Name             string `json:"name" bson:"name"`
	ShortDescription string `json:"shortDescription" bson:"short_description"`
	Designation      string `json:"designation" bson:"designation"`
	Location         string `json:"location" bson:"location"`
	Email            string `json:"email" bson:"email"`
}

// UserRef identifies the author of a change.
type UserRef struct {
	UserID string `json:"userId" bson:"user_id"`
	Name   string `json:"name" bson:"name"`
}
