package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"go-jwt-auth/internal/config"
	"go-jwt-auth/internal/database"
	"go-jwt-auth/internal/handler"
	"go-jwt-auth/internal/middleware"
	"go-jwt-auth/internal/model"
	"go-jwt-auth/internal/repository"
	"go-jwt-auth/internal/router"
	"go-jwt-auth/internal/service"
)

const auditCapacity = 1000

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

// backend bundles the stores selected by CREDENTIAL_STORE.
type backend struct {
	users   service.CredentialStore
	audit   auditStore
	checks  map[string]handler.HealthCheck
	cleanup []func()
}

type auditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	slog.Info("configuration loaded", "config", cfg)

	hasher, err := repository.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	b, err := openBackend(ctx, cfg, hasher)
	if err != nil {
		return nil, err
	}
	cleanup := func() {
		for _, fn := range b.cleanup {
			fn()
		}
	}

	codec, err := service.NewTokenCodec(cfg.JWTKey, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	var auditService *service.AuditService
	if cfg.AuditEnabled {
		auditService = service.NewAuditService(b.audit)
	}

	authService := service.NewAuthService(b.users, codec, auditService, cfg.DefaultRoles)
	if cfg.AdminUsername != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(codec), router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Audit:  handler.NewAuditHandler(auditService),
		Sample: handler.NewSampleHandler(),
		Health: handler.NewHealthHandler(b.checks),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, cleanupFuncs: b.cleanup}, nil
}

func openBackend(ctx context.Context, cfg *config.Config, hasher *repository.PasswordHasher) (*backend, error) {
	switch cfg.CredentialStore {
	case config.StorePostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		slog.Info("database ready")

		return &backend{
			users:   repository.NewUserRepository(db.Pool, hasher),
			audit:   repository.NewAuditRepository(db.Pool),
			checks:  map[string]handler.HealthCheck{"postgres": db.Health},
			cleanup: []func(){db.Close},
		}, nil

	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			// The URL may carry a password; keep it out of the error.
			return nil, errors.New("failed to parse REDIS_URL: invalid connection string")
		}

		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("redis ready", "addr", opts.Addr, "db", opts.DB, "prefix", cfg.RedisPrefix)

		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		closeClient := func() { _ = client.Close() }

		return &backend{
			users:   repository.NewRedisUserRepository(client, cfg.RedisPrefix, hasher),
			audit:   repository.NewRedisAuditRepository(client, cfg.RedisPrefix, auditCapacity),
			checks:  map[string]handler.HealthCheck{"redis": ping},
			cleanup: []func(){closeClient},
		}, nil

	case config.StoreMemory:
		slog.Warn("using in-memory credential store; accounts are lost on restart")
		return &backend{
			users: repository.NewMemoryUserRepository(hasher),
			audit: repository.NewMemoryAuditRepository(auditCapacity),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported credential store %q", cfg.CredentialStore)
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Drain in-flight requests before closing the stores they use.
	shutdownErr := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
