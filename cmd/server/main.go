// @title       Todolist API
// @version     1.0
// @description Multi-user todolist with password and provider sign-in.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/todolist/todo-service/internal/api"
	"github.com/todolist/todo-service/internal/api/metrics"
	"github.com/todolist/todo-service/internal/api/middleware"
	"github.com/todolist/todo-service/internal/core/ports"
	"github.com/todolist/todo-service/internal/core/service"
	"github.com/todolist/todo-service/internal/infrastructure/config"
	mongodb "github.com/todolist/todo-service/internal/infrastructure/db/mongo"
	"github.com/todolist/todo-service/internal/infrastructure/db/postgres"
	redisdb "github.com/todolist/todo-service/internal/infrastructure/db/redis"
	"github.com/todolist/todo-service/internal/infrastructure/http/handlers"
	"github.com/todolist/todo-service/internal/infrastructure/oauth"
	"github.com/todolist/todo-service/internal/infrastructure/queue"
	"github.com/todolist/todo-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// run may fail before the logger is initialised.
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// stores bundles the persistence chosen by STORE_DRIVER.
type stores struct {
	users ports.CredentialStore
	tasks ports.TaskRepository
	probe handlers.Pinger
	name  string
	close func(context.Context) error
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})
	ctx = logger.WithContext(ctx, log)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Warn().Err(err).Str("store", st.name).Msg("store close failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	pool := queue.NewPool(cfg.Hash.Workers, log)
	defer pool.Close()

	hasher := service.NewBcryptHasher(cfg.Hash.Cost, pool, service.WithObserver(func(op string, d time.Duration) {
		metrics.PasswordHashDuration.WithLabelValues(op).Observe(d.Seconds())
	}))
	users := service.NewGuardedCredentialStore(st.users, cfg.Store.Timeout, log)
	sessions := service.NewSessionCodec(redisdb.NewSessionStore(rdb, cfg.Session.TTL), users, log)
	gate := service.NewGate(sessions)

	e := api.NewRouter(api.Dependencies{
		Logger:    log,
		Auth:      service.NewAuthService(users, hasher, log),
		Resolver:  service.NewIdentityResolver(users, log),
		Sessions:  sessions,
		Gate:      gate,
		Tasks:     service.NewTaskService(st.tasks, gate, log),
		Providers: providers(cfg, log),
		States:    oauth.NewStateSigner(cfg.Session.Secret, 0),
		Cookies: middleware.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.SecureCookie,
			TTL:    cfg.Session.TTL,
		},
		Probes: map[string]handlers.Pinger{
			st.name: st.probe,
			"redis": redisdb.Pinger{Client: rdb},
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("store", st.name).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, postgres.Config{
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("database", cfg.Postgres.Database).Msg("postgres ready")
		return &stores{
			users: postgres.NewUserRepository(db),
			tasks: postgres.NewTaskRepository(db),
			probe: postgres.Pinger{DB: db},
			name:  "postgres",
			close: func(context.Context) error { return db.Close() },
		}, nil
	default:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		userRepo := mongodb.NewUserRepository(db)
		taskRepo := mongodb.NewTaskRepository(db)
		if err := errors.Join(userRepo.EnsureIndexes(ctx), taskRepo.EnsureIndexes(ctx)); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb ready")
		return &stores{
			users: userRepo,
			tasks: taskRepo,
			probe: mongodb.Pinger{Client: client},
			name:  "mongodb",
			close: client.Disconnect,
		}, nil
	}
}

// providers registers only the sign-in providers that have credentials.
func providers(cfg *config.Config, log zerolog.Logger) *oauth.Registry {
	var enabled []ports.IdentityProvider
	google := oauth.ClientConfig{
		ClientID:     cfg.OAuth.Google.ClientID,
		ClientSecret: cfg.OAuth.Google.ClientSecret,
		RedirectURL:  cfg.OAuth.Google.RedirectURL,
		Timeout:      cfg.OAuth.Timeout,
	}
	if google.Enabled() {
		enabled = append(enabled, oauth.NewGoogle(google))
	}
	github := oauth.ClientConfig{
		ClientID:     cfg.OAuth.GitHub.ClientID,
		ClientSecret: cfg.OAuth.GitHub.ClientSecret,
		RedirectURL:  cfg.OAuth.GitHub.RedirectURL,
		Timeout:      cfg.OAuth.Timeout,
	}
	if github.Enabled() {
		enabled = append(enabled, oauth.NewGitHub(github))
	}
	reg := oauth.NewRegistry(enabled...)
	log.Info().Strs("providers", reg.Names()).Msg("sign-in providers configured")
	return reg
}
