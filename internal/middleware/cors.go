package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets browser clients call the API with a bearer token. Only the
// Authorization and Content-Type headers are accepted; credentials
// (cookies) are never allowed, as the token travels in a header.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// WWW-Authenticate is exposed so browsers can see the bearer challenge.
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{"WWW-Authenticate", requestIDHeader, "Retry-After"},
		MaxAge:           600,
		AllowCredentials: false,
	}).Handler
}
