package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/todolist/todo-service/docs"
	"github.com/todolist/todo-service/internal/api/handler"
	"github.com/todolist/todo-service/internal/api/middleware"
	"github.com/todolist/todo-service/internal/core/ports"
	infrahttp "github.com/todolist/todo-service/internal/infrastructure/http"
	"github.com/todolist/todo-service/internal/infrastructure/http/handlers"
)

// Dependencies are the services the HTTP layer is built from.
type Dependencies struct {
	Logger    zerolog.Logger
	Auth      ports.AuthService
	Resolver  ports.IdentityResolver
	Sessions  ports.SessionCodec
	Gate      middleware.Authenticator
	Tasks     ports.TaskService
	Providers handler.ProviderRegistry
	States    handler.StateSigner
	Cookies   middleware.CookieConfig
	Probes    map[string]handlers.Pinger

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestContext(deps.Logger))
	e.Use(middleware.RequestLogger())
	registerer, gatherer := deps.Registerer, deps.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "todolist",
		Registerer: registerer,
	}))

	// --- Ambient routes ---
	infrahttp.RegisterProbes(e, deps.Probes)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	session := middleware.Session(deps.Gate, deps.Cookies)
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Sessions, deps.Cookies, deps.Providers)
	oauthHandler := handler.NewOAuthHandler(deps.Providers, deps.States, deps.Resolver, deps.Sessions, deps.Cookies)
	taskHandler := handler.NewTaskHandler(deps.Tasks)

	// --- Public routes ---
	e.GET("/", authHandler.Home, session)
	e.GET("/login", authHandler.LoginForm, session)
	e.POST("/login", authHandler.Login, session)
	e.GET("/register", authHandler.RegisterForm, session)
	e.POST("/register", authHandler.Register, session)
	// logout reads the cookie itself and works while the session store is down
	e.GET("/logout", authHandler.Logout)
	e.POST("/reset-password", authHandler.ResetPassword, session)
	e.GET("/auth/:provider", oauthHandler.Start, session)
	e.GET("/auth/:provider/callback", oauthHandler.Callback, session)

	// --- Protected routes ---
	todolist := e.Group("/todolist", session, middleware.RequireAuthenticated("/login"))
	todolist.GET("", taskHandler.List)
	todolist.POST("", taskHandler.Create)
	todolist.POST("/complete/:id", taskHandler.Complete)
	todolist.POST("/delete/:id", taskHandler.Delete)

	return e
}
