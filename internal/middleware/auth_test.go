package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jwt-auth/internal/model"
)

// stubValidator accepts exactly one token.
type stubValidator struct {
	token  string
	claims model.ClaimSet
	seen   []string
}

func (v *stubValidator) Validate(raw string) (model.ClaimSet, error) {
	v.seen = append(v.seen, raw)
	if raw != v.token {
		return nil, model.ErrUnauthorized
	}
	return v.claims, nil
}

func claimsEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(claims.Subject()))
	})
}

func TestRequireAuth(t *testing.T) {
	validator := &stubValidator{token: "good", claims: model.NewClaimSet("alice", "id-1", "user")}
	handler := NewAuthMiddleware(validator).RequireAuth(claimsEcho())

	cases := map[string]struct {
		header string
		status int
	}{
		"valid":             {header: "Bearer good", status: http.StatusOK},
		"lowercase scheme":  {header: "bearer good", status: http.StatusOK},
		"extra whitespace":  {header: "  Bearer   good  ", status: http.StatusOK},
		"missing header":    {header: "", status: http.StatusUnauthorized},
		"basic scheme":      {header: "Basic Zm9vOmJhcg==", status: http.StatusUnauthorized},
		"scheme only":       {header: "Bearer", status: http.StatusUnauthorized},
		"empty token":       {header: "Bearer   ", status: http.StatusUnauthorized},
		"rejected token":    {header: "Bearer forged", status: http.StatusUnauthorized},
		"token without tag": {header: "good", status: http.StatusUnauthorized},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sample", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "alice", rec.Body.String())
				return
			}
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.Empty(t, rec.Body.String())
		})
	}
}

func TestRequireAuthSkipsValidatorWithoutBearer(t *testing.T) {
	validator := &stubValidator{token: "good"}
	handler := NewAuthMiddleware(validator).RequireAuth(claimsEcho())

	req := httptest.NewRequest(http.MethodGet, "/api/sample", nil)
	req.Header.Set("Authorization", "Basic good")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, validator.seen)
}

func TestRequireRoles(t *testing.T) {
	validator := &stubValidator{token: "user-token", claims: model.NewClaimSet("alice", "id-1", "user")}
	auth := NewAuthMiddleware(validator)
	handler := auth.RequireAuth(auth.RequireRoles("admin")(claimsEcho()))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/sample", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"FORBIDDEN","message":"insufficient permissions"}}`, rec.Body.String())

	validator.token = "admin-token"
	validator.claims = model.NewClaimSet("root", "id-2", "admin", "user")
	req = httptest.NewRequest(http.MethodGet, "/api/admin/sample", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root", rec.Body.String())
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	handler := NewAuthMiddleware(&stubValidator{}).RequireRoles("admin")(claimsEcho())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/sample", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}
