package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-jwt-auth/internal/model"
)

// RedisUserRepository stores credentials as hashes. A username is claimed
// with SETNX on its normalized key before the record is written, so two
// concurrent registrations cannot both succeed.
//
// Keys:
//
//	<prefix>:username:<lower(username)>  -> user id
//	<prefix>:user:<id>                   -> hash(id, username, email, password_hash, created_at)
//	<prefix>:roles:<id>                  -> list of roles
type RedisUserRepository struct {
	client redis.UniversalClient
	prefix string
	hasher *PasswordHasher
}

func NewRedisUserRepository(client redis.UniversalClient, prefix string, hasher *PasswordHasher) *RedisUserRepository {
	if prefix == "" {
		prefix = "auth"
	}
	return &RedisUserRepository{client: client, prefix: prefix, hasher: hasher}
}

func (r *RedisUserRepository) usernameKey(username string) string {
	return r.prefix + ":username:" + usernameKey(username)
}

func (r *RedisUserRepository) userKey(id string) string {
	return r.prefix + ":user:" + id
}

func (r *RedisUserRepository) rolesKey(id string) string {
	return r.prefix + ":roles:" + id
}

func (r *RedisUserRepository) FindByUsername(ctx context.Context, username string) (model.Credential, error) {
	id, err := r.client.Get(ctx, r.usernameKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Credential{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("resolve username: %w", err)
	}

	fields, err := r.client.HGetAll(ctx, r.userKey(id)).Result()
	if err != nil {
		return model.Credential{}, fmt.Errorf("load user %s: %w", id, err)
	}
	if len(fields) == 0 {
		// Username claimed but record never written.
		return model.Credential{}, model.ErrUserNotFound
	}

	cred := model.Credential{
		ID:           fields["id"],
		Username:     fields["username"],
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
	}
	if raw := fields["created_at"]; raw != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return model.Credential{}, fmt.Errorf("parse created_at for user %s: %w", id, err)
		}
		cred.CreatedAt = createdAt
	}
	return cred, nil
}

func (r *RedisUserRepository) Create(ctx context.Context, cred model.Credential, password string, roles []string) (model.Credential, error) {
	hash, err := r.hasher.Hash(password)
	if err != nil {
		return model.Credential{}, err
	}
	created := prepareCredential(cred, hash)
	nameKey := r.usernameKey(created.Username)

	claimed, err := r.client.SetNX(ctx, nameKey, created.ID, 0).Result()
	if err != nil {
		return model.Credential{}, fmt.Errorf("claim username: %w", err)
	}
	if !claimed {
		return model.Credential{}, model.ErrUserAlreadyExists
	}

	assigned := copyRoles(roles)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.userKey(created.ID),
			"id", created.ID,
			"username", created.Username,
			"email", created.Email,
			"password_hash", created.PasswordHash,
			"created_at", created.CreatedAt.Format(time.RFC3339Nano),
		)
		if len(assigned) > 0 {
			values := make([]any, len(assigned))
			for i, role := range assigned {
				values[i] = role
			}
			pipe.RPush(ctx, r.rolesKey(created.ID), values...)
		}
		return nil
	})
	if err != nil {
		// Release the username so a retry can succeed.
		_ = r.client.Del(ctx, nameKey).Err()
		return model.Credential{}, fmt.Errorf("write user record: %w", err)
	}

	return created, nil
}

func (r *RedisUserRepository) VerifyPassword(_ context.Context, cred model.Credential, password string) (bool, error) {
	return r.hasher.Compare(cred.PasswordHash, password), nil
}

func (r *RedisUserRepository) RolesForUser(ctx context.Context, cred model.Credential) ([]string, error) {
	roles, err := r.client.LRange(ctx, r.rolesKey(cred.ID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}
