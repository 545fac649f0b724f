package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jwt-auth/internal/model"
	"go-jwt-auth/pkg/apierror"
)

func TestWriteError(t *testing.T) {
	cases := map[string]struct {
		err     error
		status  int
		message string
	}{
		"conflict":          {err: model.ErrUserAlreadyExists, status: http.StatusInternalServerError, message: msgUserExists},
		"registration":      {err: fmt.Errorf("%w: %w: create user", model.ErrRegistrationFailed, model.ErrStoreFailure), status: http.StatusInternalServerError, message: msgCreateFailed},
		"store failure":     {err: fmt.Errorf("%w: list roles", model.ErrStoreFailure), status: http.StatusInternalServerError, message: msgStoreFailed},
		"forbidden":         {err: model.ErrForbidden, status: http.StatusForbidden, message: "insufficient permissions"},
		"api error":         {err: apierror.New("BAD_REQUEST", msgInvalidBody, "", http.StatusBadRequest), status: http.StatusBadRequest, message: msgInvalidBody},
		"unclassified":      {err: errors.New("dial tcp 10.0.0.5:5432"), status: http.StatusInternalServerError, message: "Unexpected server error"},
		"validation fields": {err: apierror.Validation(map[string]string{"email": "must be a valid email address"}), status: http.StatusBadRequest, message: "one or more fields are invalid"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tc.message)
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
			if tc.message != msgCreateFailed {
				assert.NotContains(t, rec.Body.String(), msgCreateFailed)
			}
		})
	}
}

func TestWriteErrorUnauthorizedHasNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("login: %w", model.ErrUnauthorized))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Empty(t, rec.Body.String())
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"username":"` + strings.Repeat("a", maxRequestBodyKB<<10) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var payload model.LoginRequest
	err := decodeJSON(rec, req, &payload)

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
}

func TestHealthHandler(t *testing.T) {
	healthy := NewHealthHandler(map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	healthy.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	down := NewHealthHandler(map[string]HealthCheck{
		"store": func(context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	down.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")
}
