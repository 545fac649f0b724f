package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"go-jwt-auth/internal/model"
)

// usernameKey is the normalized form every store uses for uniqueness and
// lookup.
func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func prepareCredential(cred model.Credential, hash string) model.Credential {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	cred.Username = strings.TrimSpace(cred.Username)
	cred.PasswordHash = hash
	return cred
}

func copyRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}
