package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-jwt-auth/internal/model"
)

const defaultRequestTimeout = 15 * time.Second

// timeoutBody is the envelope sent when a handler overruns. A bcrypt
// comparison under load is the usual cause.
var timeoutBody = func() string {
	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "REQUEST_TIMEOUT",
			Message: "The request took too long, please try again.",
		},
	})
	return string(body)
}()

// Timeout bounds a handler with http.TimeoutHandler, which also buffers the
// response so a late write cannot follow the 503.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
