package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/repository"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5, "tickets")
	token, exp, err := tm.GenerateToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "tickets", claims.Issuer)
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", 5, "tickets")

	other := NewTokenManager("other", 5, "tickets")
	foreign, _, err := other.GenerateToken("user-1")
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"expired token": expiredToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tm.ParseToken(token)
			assert.Error(t, err)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret"))
	assert.Error(t, ComparePassword(hash, "wrong"))

	_, err = HashPassword(string(make([]byte, 73)), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func newAuthApp(t *testing.T, users repository.UserRepository, tm *TokenManager, guard ...fiber.Handler) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm, users).Handle}, guard...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		require.True(t, ok)
		return c.SendString(user.ID)
	})
	app.Get("/me", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	users := repository.NewMemoryUserRepository(nil)
	require.NoError(t, users.Create(context.Background(), &domain.User{ID: "u1", Email: "u1@example.com"}))

	tm := NewTokenManager("secret", 5, "tickets")
	userToken, _, err := tm.GenerateToken("u1")
	require.NoError(t, err)
	ghostToken, _, err := tm.GenerateToken("ghost")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "unknown user", header: "Bearer " + ghostToken, status: http.StatusUnauthorized},
		{name: "valid user", header: "Bearer " + userToken, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAuthApp(t, users, tm, RequireUser())
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
