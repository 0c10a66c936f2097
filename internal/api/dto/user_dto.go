package dto

import (
	"time"

	"github.com/supportdesk/ticket-service/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     domain.PersonName `json:"name"`
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Info     domain.UserInfo   `json:"info"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserProfile is the public view of a user; it never exposes the password hash.
type UserProfile struct {
	ID                 string            `json:"id"`
	Name               domain.PersonName `json:"name"`
	Email              string            `json:"email"`
	Info               domain.UserInfo   `json:"info"`
	IsAdmin            bool              `json:"isAdmin"`
	IsTicketsModerator bool              `json:"isTicketsModerator"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	User UserProfile  `json:"user"`
	Auth AuthResponse `json:"auth"`
}

// UserListResponse wraps a list of profiles.
type UserListResponse struct {
	Users []UserProfile `json:"users"`
}

// NewUserProfile builds the public view of u.
func NewUserProfile(u *domain.User) UserProfile {
	return UserProfile{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Info:               u.Info,
		IsAdmin:            u.IsAdmin,
		IsTicketsModerator: u.IsTicketsModerator,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// NewUserList builds profiles for users.
func NewUserList(users []domain.User) UserListResponse {
	out := make([]UserProfile, 0, len(users))
	for i := range users {
		out = append(out, NewUserProfile(&users[i]))
	}
	return UserListResponse{Users: out}
}
