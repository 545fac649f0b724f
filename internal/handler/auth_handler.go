package handler

import (
	"net/http"

	"go-jwt-auth/internal/middleware"
	"go-jwt-auth/internal/model"
	"go-jwt-auth/internal/service"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegistrationRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	r = withActor(r)
	if err := h.service.Register(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: msgUserCreated})
}

// Login answers with a bare {token, expiration} object.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	r = withActor(r)
	resp, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	writeSuccess(w, http.StatusOK, model.MeResponse{
		Username: claims.Subject(),
		TokenID:  claims.TokenID(),
		Roles:    claims.Roles(),
	})
}
