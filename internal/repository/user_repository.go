package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/observability"
)

// UserRepository defines persistence access for the user directory.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListNonAdmin returns every non-admin user ordered by creation time.
	ListNonAdmin(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	pool    *pgxpool.Pool
	metrics *observability.Metrics
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool, metrics *observability.Metrics) UserRepository {
	return &userRepository{pool: pool, metrics: metrics}
}

const uniqueViolation = "23505"

const userColumns = `id, first_name, last_name, email, password_hash, short_description, designation,
               location, is_admin, is_tickets_moderator, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) (err error) {
	defer r.metrics.ObserveStore(storePostgres, "create_user")(&err)

	const query = `
        INSERT INTO users (id, first_name, last_name, email, password_hash, short_description,
                           designation, location, is_admin, is_tickets_moderator, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err = r.pool.Exec(ctx, query,
		user.ID,
		user.Name.FirstName,
		user.Name.LastName,
		user.Email,
		user.PasswordHash,
		user.Info.About.ShortDescription,
		user.Info.About.Designation,
		user.Info.About.Location,
		user.IsAdmin,
		user.IsTicketsModerator,
		user.CreatedAt,
		user.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) (err error) {
	defer r.metrics.ObserveStore(storePostgres, "update_user")(&err)

	const query = `
        UPDATE users SET first_name=$1, last_name=$2, email=$3, password_hash=$4, short_description=$5,
            designation=$6, location=$7, is_admin=$8, is_tickets_moderator=$9, updated_at=$10
        WHERE id=$11`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name.FirstName,
		user.Name.LastName,
		user.Email,
		user.PasswordHash,
		user.Info.About.ShortDescription,
		user.Info.About.Designation,
		user.Info.About.Location,
		user.IsAdmin,
		user.IsTicketsModerator,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (user *domain.User, err error) {
	defer r.metrics.ObserveStore(storePostgres, "get_user")(&err)
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (user *domain.User, err error) {
	defer r.metrics.ObserveStore(storePostgres, "get_user_by_email")(&err)
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) ListNonAdmin(ctx context.Context) (users []domain.User, err error) {
	defer r.metrics.ObserveStore(storePostgres, "list_users")(&err)

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE NOT is_admin ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users = make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name.FirstName,
		&user.Name.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Info.About.ShortDescription,
		&user.Info.About.Designation,
		&user.Info.About.Location,
		&user.IsAdmin,
		&user.IsTicketsModerator,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
