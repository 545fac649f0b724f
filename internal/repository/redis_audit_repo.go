package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"go-jwt-auth/internal/model"
)

// RedisAuditRepository keeps a capped list of JSON-encoded entries at
// <prefix>:audit, newest at the head.
type RedisAuditRepository struct {
	client   redis.UniversalClient
	key      string
	capacity int64
}

func NewRedisAuditRepository(client redis.UniversalClient, prefix string, capacity int) *RedisAuditRepository {
	if prefix == "" {
		prefix = "auth"
	}
	if capacity <= 0 {
		capacity = 1000
	}
	return &RedisAuditRepository{client: client, key: prefix + ":audit", capacity: int64(capacity)}
}

func (r *RedisAuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, payload)
		pipe.LTrim(ctx, r.key, 0, r.capacity-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func (r *RedisAuditRepository) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, int64(clampLimit(limit))-1).Result()
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	entries := make([]model.AuditEntry, 0, len(raw))
	for _, item := range raw {
		var e model.AuditEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
