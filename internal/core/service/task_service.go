package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

const maxTaskLength = 500

// OwnershipChecker rejects a mutation unless principal owns the resource.
// *Gate satisfies it.
type OwnershipChecker interface {
	RequireOwnership(principal *domain.Principal, ownerID string) error
}

type TaskService struct {
	repo   ports.TaskRepository
	owners OwnershipChecker
	logger zerolog.Logger
}

func NewTaskService(repo ports.TaskRepository, owners OwnershipChecker, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, owners: owners, logger: logger}
}

func (s *TaskService) List(ctx context.Context, principal *domain.Principal) ([]*domain.Task, error) {
	if principal == nil {
		return nil, domain.ErrSessionInvalid
	}
	tasks, err := s.repo.ListByOwner(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, principal *domain.Principal, title string) (*domain.Task, error) {
	if principal == nil {
		return nil, domain.ErrSessionInvalid
	}
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTaskLength {
		return nil, domain.ErrInvalidInput
	}

	task, err := s.repo.Create(ctx, &domain.Task{
		OwnerID:   principal.ID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", principal.ID).Msg("failed to create task")
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.Info().Str("task_id", task.ID).Str("user_id", principal.ID).Msg("task created")
	return task, nil
}

// Complete marks a task done after checking that principal owns it.
func (s *TaskService) Complete(ctx context.Context, principal *domain.Principal, taskID string) error {
	if err := s.authorize(ctx, principal, taskID); err != nil {
		return err
	}
	if err := s.repo.SetCompleted(ctx, taskID, principal.ID); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// Delete removes a task after checking that principal owns it.
func (s *TaskService) Delete(ctx context.Context, principal *domain.Principal, taskID string) error {
	if err := s.authorize(ctx, principal, taskID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, taskID, principal.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.logger.Info().Str("task_id", taskID).Str("user_id", principal.ID).Msg("task deleted")
	return nil
}

func (s *TaskService) authorize(ctx context.Context, principal *domain.Principal, taskID string) error {
	if principal == nil {
		return domain.ErrSessionInvalid
	}
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.owners.RequireOwnership(principal, task.OwnerID); err != nil {
		s.logger.Warn().
			Str("task_id", taskID).
			Str("user_id", principal.ID).
			Msg("task mutation rejected, not the owner")
		return err
	}
	return nil
}
