package ports

import (
	"context"

	"github.com/todolist/todo-service/internal/core/domain"
)

// TaskService defines the protected task operations. Every call is made on
// behalf of an authenticated principal.
type TaskService interface {
	List(ctx context.Context, principal *domain.Principal) ([]*domain.Task, error)
	Create(ctx context.Context, principal *domain.Principal, title string) (*domain.Task, error)
	Complete(ctx context.Context, principal *domain.Principal, taskID string) error
	Delete(ctx context.Context, principal *domain.Principal, taskID string) error
}
