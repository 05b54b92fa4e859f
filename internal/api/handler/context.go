package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/todolist/todo-service/internal/api/middleware"
	"github.com/todolist/todo-service/internal/core/domain"
)

// ctxPrincipal returns the principal placed on the request by the Session
// middleware. Protected routes never run without one, so absence means the
// route was wired without the gate.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p, ok := middleware.Principal(c)
	if !ok {
		return nil, domain.ErrSessionInvalid
	}
	return p, nil
}
