package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/observability"
)

// MemoryTicketRepository keeps tickets in process memory. Values are deep-copied on
// the way in and out so callers never share state with the store.
type MemoryTicketRepository struct {
	mu      sync.Mutex
	seq     int64
	tickets map[string]*domain.Ticket
	metrics *observability.Metrics
}

// NewMemoryTicketRepository creates an empty in-memory ticket store.
func NewMemoryTicketRepository(metrics *observability.Metrics) *MemoryTicketRepository {
	return &MemoryTicketRepository{tickets: make(map[string]*domain.Ticket), metrics: metrics}
}

func (r *MemoryTicketRepository) NextNumber(ctx context.Context) (n int64, err error) {
	defer r.metrics.ObserveStore(storeMemory, "next_ticket_number")(&err)
	if err = ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *MemoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (err error) {
	defer r.metrics.ObserveStore(storeMemory, "create_ticket")(&err)
	if err = ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.Version = 1
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *MemoryTicketRepository) GetByID(ctx context.Context, id string) (ticket *domain.Ticket, err error) {
	defer r.metrics.ObserveStore(storeMemory, "get_ticket")(&err)
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return stored.Clone(), nil
}

func (r *MemoryTicketRepository) List(ctx context.Context) (tickets []domain.Ticket, err error) {
	defer r.metrics.ObserveStore(storeMemory, "list_tickets")(&err)
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tickets = make([]domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		tickets = append(tickets, *t.Clone())
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].Number < tickets[j].Number })
	return tickets, nil
}

func (r *MemoryTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (err error) {
	defer r.metrics.ObserveStore(storeMemory, "update_ticket")(&err)
	if err = ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != ticket.Version {
		return ErrVersionConflict
	}
	ticket.Version++
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *MemoryTicketRepository) Delete(ctx context.Context, id string) (err error) {
	defer r.metrics.ObserveStore(storeMemory, "delete_ticket")(&err)
	if err = ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(r.tickets, id)
	return nil
}

// MemoryUserRepository keeps users in process memory.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	metrics *observability.Metrics
}

// NewMemoryUserRepository creates an empty in-memory user directory.
func NewMemoryUserRepository(metrics *observability.Metrics) *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User), metrics: metrics}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) (err error) {
	defer r.metrics.ObserveStore(storeMemory, "create_user")(&err)
	if err = ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *domain.User) (err error) {
	defer r.metrics.ObserveStore(storeMemory, "update_user")(&err)
	if err = ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (user *domain.User, err error) {
	defer r.metrics.ObserveStore(storeMemory, "get_user")(&err)
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (user *domain.User, err error) {
	defer r.metrics.ObserveStore(storeMemory, "get_user_by_email")(&err)
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) ListNonAdmin(ctx context.Context) (users []domain.User, err error) {
	defer r.metrics.ObserveStore(storeMemory, "list_users")(&err)
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	users = make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		if !u.IsAdmin {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}
