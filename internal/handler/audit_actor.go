package handler

import (
	"net/http"

	"go-jwt-auth/internal/middleware"
	"go-jwt-auth/internal/model"
	"go-jwt-auth/internal/service"
)

// withActor records who is calling so the auth flow can audit the outcome.
func withActor(r *http.Request) *http.Request {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}

	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actor.Username = claims.Subject()
	}

	return r.WithContext(service.ContextWithActor(r.Context(), actor))
}
