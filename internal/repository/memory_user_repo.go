package repository

import (
	"context"
	"sync"

	"go-jwt-auth/internal/model"
)

type memoryUser struct {
	cred  model.Credential
	roles []string
}

// MemoryUserRepository keeps credentials in process memory. Uniqueness is
// enforced under the write lock.
type MemoryUserRepository struct {
	hasher *PasswordHasher
	mu     sync.RWMutex
	users  map[string]memoryUser
}

func NewMemoryUserRepository(hasher *PasswordHasher) *MemoryUserRepository {
	return &MemoryUserRepository{
		hasher: hasher,
		users:  map[string]memoryUser{},
	}
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (model.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[usernameKey(username)]
	if !exists {
		return model.Credential{}, model.ErrUserNotFound
	}
	return user.cred, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, cred model.Credential, password string, roles []string) (model.Credential, error) {
	key := usernameKey(cred.Username)

	// Hash outside the lock; bcrypt is slow on purpose.
	hash, err := r.hasher.Hash(password)
	if err != nil {
		return model.Credential{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[key]; exists {
		return model.Credential{}, model.ErrUserAlreadyExists
	}

	created := prepareCredential(cred, hash)
	r.users[key] = memoryUser{cred: created, roles: copyRoles(roles)}
	return created, nil
}

func (r *MemoryUserRepository) VerifyPassword(_ context.Context, cred model.Credential, password string) (bool, error) {
	return r.hasher.Compare(cred.PasswordHash, password), nil
}

func (r *MemoryUserRepository) RolesForUser(_ context.Context, cred model.Credential) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[usernameKey(cred.Username)]
	if !exists || user.cred.ID != cred.ID {
		return nil, model.ErrUserNotFound
	}
	return append([]string(nil), user.roles...), nil
}

func (r *MemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
