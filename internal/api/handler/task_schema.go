package handler

import "github.com/todolist/todo-service/internal/core/domain"

type createTaskRequest struct {
	Task string `json:"task" form:"task" validate:"required,max=500"`
}

type taskListResponse struct {
	User  string         `json:"user"`
	Tasks []*domain.Task `json:"tasks"`
}
