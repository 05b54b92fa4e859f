package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/todolist/todo-service/internal/core/domain"
)

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	owner, ok := parseID(ownerID)
	if !ok {
		return []*domain.Task{}, nil
	}

	query :=
		`SELECT id, user_id, task, completed, created_at FROM todolist
		 WHERE user_id = $1
		 ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	owner, ok := parseID(task.OwnerID)
	if !ok {
		return nil, domain.ErrInvalidInput
	}

	query :=
		`INSERT INTO todolist (user_id, task, completed, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, owner, task.Title, task.Completed, task.CreatedAt).Scan(&id); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	created := *task
	created.ID = formatID(id)
	return &created, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	query :=
		`SELECT id, user_id, task, completed, created_at FROM todolist
		 WHERE id = $1`

	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		return nil, domain.ErrTaskNotFound
	}
	return scanTask(rows)
}

func (r *TaskRepository) SetCompleted(ctx context.Context, id, ownerID string) error {
	return r.execOwned(ctx,
		`UPDATE todolist SET completed = TRUE
		 WHERE id = $1 AND user_id = $2`,
		id, ownerID)
}

func (r *TaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	return r.execOwned(ctx,
		`DELETE FROM todolist
		 WHERE id = $1 AND user_id = $2`,
		id, ownerID)
}

func (r *TaskRepository) execOwned(ctx context.Context, query, id, ownerID string) error {
	n, ok := parseID(id)
	if !ok {
		return domain.ErrTaskNotFound
	}
	owner, ok := parseID(ownerID)
	if !ok {
		return domain.ErrTaskNotFound
	}

	res, err := r.db.ExecContext(ctx, query, n, owner)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(rows *sql.Rows) (*domain.Task, error) {
	var id, owner int64
	t := &domain.Task{}
	if err := rows.Scan(&id, &owner, &t.Title, &t.Completed, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.ID = formatID(id)
	t.OwnerID = formatID(owner)
	return t, nil
}
