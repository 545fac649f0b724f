package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-jwt-auth/internal/model"
)

const pgUniqueViolation = "23505"

// UserRepository is the PostgreSQL credential store. The unique index on
// lower(username) is the authority on duplicates.
type UserRepository struct {
	pool   *pgxpool.Pool
	hasher *PasswordHasher
}

func NewUserRepository(pool *pgxpool.Pool, hasher *PasswordHasher) *UserRepository {
	return &UserRepository{pool: pool, hasher: hasher}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.Credential, error) {
	var c model.Credential
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at
		 FROM users WHERE lower(username) = $1`, usernameKey(username)).
		Scan(&c.ID, &c.Username, &c.Email, &c.PasswordHash, &c.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Credential{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("find user by username: %w", err)
	}
	return c, nil
}

func (r *UserRepository) Create(ctx context.Context, cred model.Credential, password string, roles []string) (model.Credential, error) {
	hash, err := r.hasher.Hash(password)
	if err != nil {
		return model.Credential{}, err
	}
	created := prepareCredential(cred, hash)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Credential{}, fmt.Errorf("begin create user: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		created.ID, created.Username, created.Email, created.PasswordHash, created.CreatedAt)
	if isUniqueViolation(err) {
		return model.Credential{}, model.ErrUserAlreadyExists
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("create user: %w", err)
	}

	for position, role := range copyRoles(roles) {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role, position) VALUES ($1, $2, $3)`,
			created.ID, role, position); err != nil {
			return model.Credential{}, fmt.Errorf("assign role %q: %w", role, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return model.Credential{}, model.ErrUserAlreadyExists
		}
		return model.Credential{}, fmt.Errorf("commit create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) VerifyPassword(_ context.Context, cred model.Credential, password string) (bool, error) {
	return r.hasher.Compare(cred.PasswordHash, password), nil
}

func (r *UserRepository) RolesForUser(ctx context.Context, cred model.Credential) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 ORDER BY position, role`, cred.ID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	roles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan roles: %w", err)
	}
	return roles, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
