package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/observability"
)

// TicketRepository encapsulates ticket persistence. A ticket is stored as one document
// together with its comments and history.
type TicketRepository interface {
	// NextNumber atomically reserves the next ticket number.
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// List returns all tickets ordered by number.
	List(ctx context.Context) ([]domain.Ticket, error)
	// Update persists ticket if its Version still matches the stored one and bumps
	// ticket.Version. It returns ErrVersionConflict otherwise.
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool    *pgxpool.Pool
	metrics *observability.Metrics
}

// NewTicketRepository instantiates the Postgres repository.
func NewTicketRepository(pool *pgxpool.Pool, metrics *observability.Metrics) TicketRepository {
	return &ticketRepository{pool: pool, metrics: metrics}
}

const ticketColumns = `id, number, title, short_description, content, status, created_by,
               tags, history, comments, version, created_at, updated_at`

func (r *ticketRepository) NextNumber(ctx context.Context) (n int64, err error) {
	defer r.metrics.ObserveStore(storePostgres, "next_ticket_number")(&err)
	err = r.pool.QueryRow(ctx, `SELECT nextval('ticket_number_seq')`).Scan(&n)
	return n, err
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) (err error) {
	defer r.metrics.ObserveStore(storePostgres, "create_ticket")(&err)

	createdBy, history, comments, err := encodeTicketDocuments(ticket)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (id, number, title, short_description, content, status, created_by,
                             tags, history, comments, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,1,$11,$12)`
	if _, err = r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.Number,
		ticket.Title,
		ticket.ShortDescription,
		ticket.Content,
		ticket.Status,
		createdBy,
		ticket.Tags.Values(),
		history,
		comments,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	); err != nil {
		return err
	}
	ticket.Version = 1
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (ticket *domain.Ticket, err error) {
	defer r.metrics.ObserveStore(storePostgres, "get_ticket")(&err)

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err = scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *ticketRepository) List(ctx context.Context) (tickets []domain.Ticket, err error) {
	defer r.metrics.ObserveStore(storePostgres, "list_tickets")(&err)

	rows, err := r.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets = make([]domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) (err error) {
	defer r.metrics.ObserveStore(storePostgres, "update_ticket")(&err)

	_, history, comments, err := encodeTicketDocuments(ticket)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET title=$1, short_description=$2, content=$3, status=$4, tags=$5,
            history=$6, comments=$7, updated_at=$8, version=version+1
        WHERE id=$9 AND version=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.ShortDescription,
		ticket.Content,
		ticket.Status,
		ticket.Tags.Values(),
		history,
		comments,
		ticket.UpdatedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrConflict(ctx, ticket.ID)
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *ticketRepository) Delete(ctx context.Context, id string) (err error) {
	defer r.metrics.ObserveStore(storePostgres, "delete_ticket")(&err)

	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeTicketDocuments(ticket *domain.Ticket) (createdBy, history, comments []byte, err error) {
	if createdBy, err = json.Marshal(ticket.CreatedBy); err != nil {
		return nil, nil, nil, fmt.Errorf("encode created_by: %w", err)
	}
	h := ticket.History
	if h == nil {
		h = []domain.HistoryItem{}
	}
	if history, err = json.Marshal(h); err != nil {
		return nil, nil, nil, fmt.Errorf("encode history: %w", err)
	}
	c := ticket.Comments
	if c == nil {
		c = []domain.Comment{}
	}
	if comments, err = json.Marshal(c); err != nil {
		return nil, nil, nil, fmt.Errorf("encode comments: %w", err)
	}
	return createdBy, history, comments, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket                       domain.Ticket
		tags                         []string
		createdBy, history, comments []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Title,
		&ticket.ShortDescription,
		&ticket.Content,
		&ticket.Status,
		&createdBy,
		&tags,
		&history,
		&comments,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.Tags = domain.NewStringSet(tags...)
	if err := json.Unmarshal(createdBy, &ticket.CreatedBy); err != nil {
		return nil, fmt.Errorf("decode created_by: %w", err)
	}
	if err := json.Unmarshal(history, &ticket.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if err := json.Unmarshal(comments, &ticket.Comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return &ticket, nil
}
