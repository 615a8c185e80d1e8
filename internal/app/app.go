package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"busyness/internal/auth"
	"busyness/internal/config"
	"busyness/internal/logger"
	"busyness/internal/repository/inmemory"
	"busyness/internal/repository/postgres"
	"busyness/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type storage interface {
	service.TaskRepository
	service.UserRepository
}

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository storage
	tasks      *service.TaskService
	users      *service.UserService
	shutdowns  []func() // run in reverse order on shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: flushing logs")
		logger.Sync()
	})

	if a.config.Auth.JWTSecret == config.DevJWTSecret {
		logger.Warn("App: using the development JWT secret, set AUTH_JWT_SECRET")
	}

	if err := a.initRepository(ctx); err != nil {
		return err
	}

	tokens := auth.NewTokenManager(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL)
	google := auth.NewGoogleVerifier(a.config.Auth.GoogleClientID)

	a.tasks = service.NewTaskService(a.repository)
	a.users = service.NewUserService(a.repository, tokens, google)

	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "busyness"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("App: initialized",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryInMemory:
		a.repository = inmemory.NewStorage()
		logger.Info("App: using in-memory storage")
		return nil

	case config.RepositoryPostgres:
		pg, err := postgres.New(ctx, a.config.Database)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, pg.Close)

		if a.config.Database.MigrateOnStart {
			if err := pg.Migrate(); err != nil {
				return fmt.Errorf("migrating postgres: %w", err)
			}
		}
		a.repository = pg
		return nil

	default:
		return fmt.Errorf("unknown repository type %q", a.config.Repository.Type)
	}
}

// Handler returns the routed HTTP handler without the server around it.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts the server down and releases resources.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: HTTP server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
