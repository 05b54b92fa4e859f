package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/todolist/todo-service/internal/api/metrics"
	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

// TaskHandler serves the protected todolist routes.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List returns the caller's tasks, newest first.
//
// @Summary      List tasks
// @Tags         todolist
// @Produce      json
// @Success      200  {object}  taskListResponse
// @Router       /todolist [get]
func (h *TaskHandler) List(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	tasks, err := h.service.List(c.Request().Context(), principal)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return c.JSON(http.StatusOK, taskListResponse{User: principal.Email, Tasks: tasks})
}

// Create adds a task.
//
// @Summary      Create task
// @Tags         todolist
// @Accept       x-www-form-urlencoded
// @Param        task  formData  string  true  "Task text"
// @Success      302  {string}  string  "redirect"
// @Failure      400  {object}  errorResponse
// @Router       /todolist [post]
func (h *TaskHandler) Create(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.TaskOperationsTotal.WithLabelValues("create", "invalid").Inc()
		return err
	}

	if _, err := h.service.Create(c.Request().Context(), principal, req.Task); err != nil {
		metrics.TaskOperationsTotal.WithLabelValues("create", taskResult(err)).Inc()
		return err
	}
	metrics.TaskOperationsTotal.WithLabelValues("create", "ok").Inc()
	return c.Redirect(http.StatusFound, pathTodolist)
}

// Complete marks a task as done.
//
// @Summary      Complete task
// @Tags         todolist
// @Param        id  path  string  true  "Task id"
// @Success      302  {string}  string  "redirect"
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /todolist/complete/{id} [post]
func (h *TaskHandler) Complete(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.service.Complete(c.Request().Context(), principal, c.Param("id")); err != nil {
		metrics.TaskOperationsTotal.WithLabelValues("complete", taskResult(err)).Inc()
		return err
	}
	metrics.TaskOperationsTotal.WithLabelValues("complete", "ok").Inc()
	return c.Redirect(http.StatusFound, pathTodolist)
}

// Delete removes a task.
//
// @Summary      Delete task
// @Tags         todolist
// @Param        id  path  string  true  "Task id"
// @Success      302  {string}  string  "redirect"
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /todolist/delete/{id} [post]
func (h *TaskHandler) Delete(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), principal, c.Param("id")); err != nil {
		metrics.TaskOperationsTotal.WithLabelValues("delete", taskResult(err)).Inc()
		return err
	}
	metrics.TaskOperationsTotal.WithLabelValues("delete", "ok").Inc()
	return c.Redirect(http.StatusFound, pathTodolist)
}

func taskResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrTaskNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
