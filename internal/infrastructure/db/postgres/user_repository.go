package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/todolist/todo-service/internal/core/domain"
)

const uniqueViolation = "23505"

// UserRepository is the PostgreSQL credential store. The users_email_key
// constraint makes Insert a single atomic insert-or-fail.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, email, credential string) (*domain.User, error) {
	query :=
		`INSERT INTO users (email, password)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id, created_at, updated_at`

	var id int64
	user := &domain.User{Email: email, Credential: credential}
	err := r.db.QueryRowContext(ctx, query, email, credential).Scan(&id, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = formatID(id)
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query :=
		`SELECT id, email, password, created_at, updated_at FROM users
		 WHERE email = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	query :=
		`SELECT id, email, password, created_at, updated_at FROM users
		 WHERE id = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, n))
}

// FindPrincipal never selects the password column.
func (r *UserRepository) FindPrincipal(ctx context.Context, id string) (*domain.Principal, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	query :=
		`SELECT id, email FROM users
		 WHERE id = $1`

	var rowID int64
	p := &domain.Principal{}
	if err := r.db.QueryRowContext(ctx, query, n).Scan(&rowID, &p.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.ID = formatID(rowID)
	return p, nil
}

func (r *UserRepository) UpdateCredential(ctx context.Context, id, credential string) error {
	n, ok := parseID(id)
	if !ok {
		return domain.ErrUserNotFound
	}

	query :=
		`UPDATE users SET password = $1, updated_at = now()
		 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, credential, n)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var id int64
	user := &domain.User{}
	if err := row.Scan(&id, &user.Email, &user.Credential, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.ID = formatID(id)
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
