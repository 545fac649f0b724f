package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-jwt-auth/internal/model"
)

type credentialStore interface {
	FindByUsername(ctx context.Context, username string) (model.Credential, error)
	Create(ctx context.Context, cred model.Credential, password string, roles []string) (model.Credential, error)
	VerifyPassword(ctx context.Context, cred model.Credential, password string) (bool, error)
	RolesForUser(ctx context.Context, cred model.Credential) ([]string, error)
}

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()

	hasher, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return hasher
}

// exerciseCredentialStore runs the behaviour every store must share.
func exerciseCredentialStore(t *testing.T, store credentialStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.FindByUsername(ctx, "alice")
	require.ErrorIs(t, err, model.ErrUserNotFound)

	created, err := store.Create(ctx, model.Credential{Username: "Alice", Email: "a@x.com"}, "p1", []string{"user", "admin", "user", " "})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
	require.NotEqual(t, "p1", created.PasswordHash)

	found, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Equal(t, "Alice", found.Username)
	require.Equal(t, "a@x.com", found.Email)

	ok, err := store.VerifyPassword(ctx, found, "p1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.VerifyPassword(ctx, found, "wrong")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.VerifyPassword(ctx, model.Credential{}, "p1")
	require.NoError(t, err)
	require.False(t, ok)

	roles, err := store.RolesForUser(ctx, found)
	require.NoError(t, err)
	require.Equal(t, []string{"user", "admin"}, roles)

	_, err = store.Create(ctx, model.Credential{Username: "ALICE", Email: "b@x.com"}, "p2", nil)
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	stillAlice, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, stillAlice.ID)

	bob, err := store.Create(ctx, model.Credential{Username: "bob", Email: "bob@x.com"}, "p3", nil)
	require.NoError(t, err)
	roles, err = store.RolesForUser(ctx, bob)
	require.NoError(t, err)
	require.Empty(t, roles)

	_, err = store.Create(ctx, model.Credential{Username: "carol", Email: "c@x.com"}, string(make([]byte, 100)), nil)
	require.ErrorIs(t, err, ErrPasswordRejected)
	_, err = store.FindByUsername(ctx, "carol")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}
