package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticket-service/internal/domain"
)

func newStoredTicket(id string, number int64) *domain.Ticket {
	now := time.Now().UTC()
	return &domain.Ticket{
		ID:        id,
		Number:    number,
		Title:     "title",
		Status:    domain.StatusOpen,
		Tags:      domain.NewStringSet("a"),
		History:   []domain.HistoryItem{},
		Comments:  []domain.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryTicketRepository_NextNumberConcurrent(t *testing.T) {
	repo := NewMemoryTicketRepository(nil)
	const workers = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.NextNumber(context.Background())
			require.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i], "missing number %d", i)
	}
}

func TestMemoryTicketRepository_UpdateVersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository(nil)
	require.NoError(t, repo.Create(ctx, newStoredTicket("t1", 1)))

	first, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)

	first.Title = "first"
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Title = "second"
	assert.ErrorIs(t, repo.Update(ctx, second), ErrVersionConflict)

	stored, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Title)
}

func TestMemoryTicketRepository_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository(nil)
	ticket := newStoredTicket("t1", 1)
	require.NoError(t, repo.Create(ctx, ticket))

	ticket.Tags.Add("leaked")
	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, got.Tags.Has("leaked"))

	got.Tags.Add("also-leaked")
	again, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, again.Tags.Has("also-leaked"))
}

func TestMemoryTicketRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository(nil)
	require.NoError(t, repo.Create(ctx, newStoredTicket("b", 2)))
	require.NoError(t, repo.Create(ctx, newStoredTicket("a", 1)))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].Number)
	assert.Equal(t, int64(2), list[1].Number)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), ErrNotFound)
	_, err = repo.GetByID(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, newStoredTicket("a", 1)), ErrNotFound)
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository(nil)
	base := time.Now().UTC()

	users := []domain.User{
		{ID: "u2", Email: "two@example.com", CreatedAt: base.Add(time.Second)},
		{ID: "u1", Email: "one@example.com", CreatedAt: base},
		{ID: "admin", Email: "admin@example.com", IsAdmin: true, CreatedAt: base},
	}
	for i := range users {
		require.NoError(t, repo.Create(ctx, &users[i]))
	}

	dup := domain.User{ID: "u3", Email: "ONE@example.com"}
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicateEmail)

	found, err := repo.GetByEmail(ctx, "two@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", found.ID)

	list, err := repo.ListNonAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u1", list[0].ID)
	assert.Equal(t, "u2", list[1].ID)

	found.IsTicketsModerator = true
	require.NoError(t, repo.Update(ctx, found))
	reloaded, err := repo.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, reloaded.IsTicketsModerator)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &domain.User{ID: "missing"}), ErrNotFound)
}
