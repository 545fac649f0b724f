package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-jwt-auth/internal/model"
)

const maxAuditPage = 200

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > maxAuditPage {
		return maxAuditPage
	}
	return limit
}

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	occurredAt, err := time.Parse(time.RFC3339Nano, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("parse occurred_at: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_entries (action, occurred_at, actor_username, actor_ip, status, error_text)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Action, occurredAt, entry.Actor.Username, entry.Actor.IP, entry.Status, entry.Error)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT action, occurred_at, actor_username, actor_ip, status, error_text
		 FROM audit_entries
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var occurredAt time.Time
		if err := rows.Scan(&e.Action, &occurredAt, &e.Actor.Username, &e.Actor.IP, &e.Status, &e.Error); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// MemoryAuditRepository keeps the most recent entries in a bounded buffer.
// Used when no database backs the service.
type MemoryAuditRepository struct {
	mu       sync.Mutex
	capacity int
	entries  []model.AuditEntry
}

func NewMemoryAuditRepository(capacity int) *MemoryAuditRepository {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryAuditRepository{capacity: capacity}
}

func (r *MemoryAuditRepository) Log(_ context.Context, entry model.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if overflow := len(r.entries) - r.capacity; overflow > 0 {
		r.entries = append([]model.AuditEntry(nil), r.entries[overflow:]...)
	}
	return nil
}

func (r *MemoryAuditRepository) Recent(_ context.Context, limit int) ([]model.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit = clampLimit(limit)
	out := make([]model.AuditEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
