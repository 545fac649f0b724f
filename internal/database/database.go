package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationName = "go-jwt-auth"
	pingTimeout     = 5 * time.Second

	// Credential lookups are single-row reads; queries that run longer are
	// cut off by the server instead of holding a login open.
	statementTimeout = "5000"
)

type DB struct {
	Pool *pgxpool.Pool
}

// New opens the credential store pool and checks it with a ping.
// databaseURL may carry a password and never appears in logs or errors.
func New(ctx context.Context, databaseURL string, maxConns int32, minConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.New("parse DATABASE_URL: invalid connection string")
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnLifetimeJitter = 5 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	cfg.ConnConfig.ConnectTimeout = pingTimeout
	cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	cfg.ConnConfig.RuntimeParams["statement_timeout"] = statementTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create credential store pool: %w", err)
	}

	db := &DB{Pool: pool}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.Health(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping credential store: %w", err)
	}

	slog.Info("credential store connected",
		"host", cfg.ConnConfig.Host,
		"database", cfg.ConnConfig.Database,
		"max_conns", maxConns,
		"min_conns", minConns,
	)
	return db, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Health backs GET /health for the postgres store.
func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
