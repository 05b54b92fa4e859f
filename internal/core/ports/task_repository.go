package ports

import (
	"context"

	"github.com/todolist/todo-service/internal/core/domain"
)

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	// ListByOwner returns the owner's tasks, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// FindByID returns domain.ErrTaskNotFound when no row matches.
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// SetCompleted and Delete are additionally filtered by owner.
	SetCompleted(ctx context.Context, id, ownerID string) error
	Delete(ctx context.Context, id, ownerID string) error
}
