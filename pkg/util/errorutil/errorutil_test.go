package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	storageCause := errors.New("connection reset")

	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "InvalidID",
			err:        NewInvalidID("ticket"),
			wantCode:   CodeInvalidID,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid ticket id",
		},
		{
			name:       "WrappedNotFound",
			err:        fmt.Errorf("load: %w", NewNotFound("ticket", nil)),
			wantCode:   CodeNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "ticket not found",
		},
		{
			name:       "TagNotFound",
			err:        NewTagNotFound("urgent"),
			wantCode:   CodeTagNotFound,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Tag not found on ticket",
		},
		{
			name:       "StorageErrorIsOpaque",
			err:        NewStorageError(storageCause),
			wantCode:   CodeStorage,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "storage error",
		},
		{
			name:       "FiberNotFound",
			err:        fiber.ErrNotFound,
			wantCode:   CodeNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Not Found",
		},
		{
			name:       "Deadline",
			err:        context.DeadlineExceeded,
			wantCode:   CodeTimeout,
			wantStatus: http.StatusGatewayTimeout,
			wantMsg:    "request timed out",
		},
		{
			name:       "Unknown",
			err:        errors.New("boom"),
			wantCode:   CodeInternal,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError(cause)
	require.ErrorIs(t, err, cause)
	require.Nil(t, ToDomainError(nil))
	require.NoError(t, MapError(nil))
}
