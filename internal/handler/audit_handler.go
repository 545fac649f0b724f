package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go-jwt-auth/internal/service"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List returns the most recent audit entries, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Recent(r.Context(), parseIntOrDefault(r.URL.Query().Get("limit"), 50))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entries)
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
