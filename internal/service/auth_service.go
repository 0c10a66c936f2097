package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/supportdesk/ticket-service/internal/auth"
	"github.com/supportdesk/ticket-service/internal/config"
	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/repository"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

const minPasswordLength = 8

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	now        func() time.Time
}

// RegisterInput describes a new account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	About     domain.About
}

// Session is the result of a successful registration or login.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, cfg.App.Name),
		bcryptCost: cfg.Auth.BcryptCost,
		now:        time.Now,
	}
}

// Register creates a new account and signs the user in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	first := strings.TrimSpace(input.FirstName)
	if first == "" {
		return nil, apperrors.NewInvalidRequest("First name is required", nil)
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewInvalidRequest("Password is too short", map[string]any{"min_length": minPasswordLength})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperrors.NewInvalidRequest("Password is too long", nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         domain.PersonName{FirstName: first, LastName: strings.TrimSpace(input.LastName)},
		Email:        email,
		PasswordHash: hash,
		Info:         domain.UserInfo{About: input.About},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("Email already registered", nil)
		}
		return nil, storageError(err)
	}
	return s.session(user)
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, storageError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.session(user)
}

// EnsureAdmin creates the admin account for email unless a user with that email exists.
// An existing user is promoted to admin.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsAdmin {
			return user, nil
		}
		user.IsAdmin = true
		user.UpdatedAt = s.now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, storageError(err)
		}
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storageError(err)
	}

	session, err := s.Register(ctx, RegisterInput{FirstName: "Admin", Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	admin := session.User
	admin.IsAdmin = true
	if err := s.users.Update(ctx, admin); err != nil {
		return nil, storageError(err)
	}
	return admin, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewInvalidRequest("Invalid email", nil)
	}
	return email, nil
}
