package service

import (
	"context"
	"log/slog"
	"time"

	"go-jwt-auth/internal/model"
)

const (
	AuditActionRegister = "auth.register"
	AuditActionLogin    = "auth.login"

	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

type auditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

type actorContextKey struct{}

// ContextWithActor attaches the request's audit actor for the auth flow.
func ContextWithActor(ctx context.Context, actor model.AuditActor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func actorFromContext(ctx context.Context) model.AuditActor {
	actor, _ := ctx.Value(actorContextKey{}).(model.AuditActor)
	return actor
}

// AuditService records authentication outcomes. A nil *AuditService is a
// valid no-op.
type AuditService struct {
	store auditStore
}

func NewAuditService(store auditStore) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Log(ctx context.Context, action string, username string, status string, errText string) {
	if s == nil {
		return
	}

	actor := actorFromContext(ctx)
	actor.Username = username

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		Error:      errText,
	}

	// Audit failures never fail the request.
	if err := s.store.Log(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("audit entry not recorded", "action", action, "error", err)
	}
}

func (s *AuditService) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if s == nil {
		return []model.AuditEntry{}, nil
	}
	return s.store.Recent(ctx, limit)
}
