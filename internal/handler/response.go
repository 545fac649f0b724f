package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-jwt-auth/internal/model"
	"go-jwt-auth/pkg/apierror"
)

const (
	msgUserCreated   = "User created successfully."
	msgUserExists    = "User with this username already exists!"
	msgCreateFailed  = "Failed to create user, please try again."
	msgStoreFailed   = "Authentication is temporarily unavailable, please try again."
	msgInvalidBody   = "invalid JSON body"
	maxRequestBodyKB = 64
)

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, model.APIResponse{
		Success: true,
		Data:    data,
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

// writeUnauthorized matches the validation middleware's challenge so a failed
// login looks like any other rejected credential.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrUnauthorized) {
		writeUnauthorized(w)
		return
	}

	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		body.Fields = apiErr.Fields
	case errors.Is(err, model.ErrUserAlreadyExists):
		body.Code = "USER_EXISTS"
		body.Message = msgUserExists
	case errors.Is(err, model.ErrRegistrationFailed):
		body.Code = "CREATE_FAILED"
		body.Message = msgCreateFailed
	case errors.Is(err, model.ErrStoreFailure):
		body.Code = "STORE_FAILURE"
		body.Message = msgStoreFailed
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "insufficient permissions"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// decodeJSON reads a single bounded JSON object into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyKB<<10))
	if err := decoder.Decode(dst); err != nil {
		return apierror.New("BAD_REQUEST", msgInvalidBody, "", http.StatusBadRequest)
	}
	return nil
}
