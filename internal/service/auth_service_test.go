package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/supportdesk/ticket-service/internal/config"
	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/repository"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *repository.MemoryUserRepository) {
	t.Helper()
	users := repository.NewMemoryUserRepository(nil)
	cfg := config.Config{
		App:  config.AppConfig{Name: "tickets"},
		Auth: config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost},
	}
	return NewAuthService(cfg, users), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     " Ada@Example.com ",
		Password:  "correct horse",
		About:     domain.About{Designation: "engineer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.NotEqual(t, "correct horse", session.User.PasswordHash)
	assert.False(t, session.User.IsAdmin)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	login, err := svc.Login(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong password")
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	valid := RegisterInput{FirstName: "Ada", Email: "ada@example.com", Password: "long enough"}

	_, err := svc.Register(ctx, valid)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input RegisterInput
		code  string
	}{
		{name: "duplicate email", input: valid, code: apperrors.CodeConflict},
		{name: "bad email", input: RegisterInput{FirstName: "A", Email: "nope", Password: "long enough"}, code: apperrors.CodeInvalidRequest},
		{name: "short password", input: RegisterInput{FirstName: "A", Email: "a@example.com", Password: "short"}, code: apperrors.CodeInvalidRequest},
		{name: "missing name", input: RegisterInput{Email: "b@example.com", Password: "long enough"}, code: apperrors.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input)
			requireCode(t, err, tt.code)
		})
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc, users := newAuthService(t)
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, "root@example.com", "super secret")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	again, err := svc.EnsureAdmin(ctx, "root@example.com", "ignored password")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	stored, err := users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)

	listed, err := users.ListNonAdmin(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
