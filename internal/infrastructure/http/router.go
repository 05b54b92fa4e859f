package http

import (
	"github.com/labstack/echo/v4"

	"github.com/todolist/todo-service/internal/infrastructure/http/handlers"
)

// RegisterProbes mounts the liveness and readiness probes on e. deps are
// pinged by the readiness probe.
func RegisterProbes(e *echo.Echo, deps map[string]handlers.Pinger) {
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
}
