package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"go-jwt-auth/internal/model"
	"go-jwt-auth/pkg/apierror"
)

// LoginTokenTTL is the fixed lifetime of a token issued by Login.
const LoginTokenTTL = 10 * time.Minute

const AdminRole = "admin"

// CredentialStore owns user records. Implementations hash passwords at rest,
// compare them in constant time and enforce username uniqueness themselves.
type CredentialStore interface {
	// FindByUsername returns model.ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (model.Credential, error)
	// Create hashes password and stores the credential with its roles. It
	// returns model.ErrUserAlreadyExists when the username is taken.
	Create(ctx context.Context, cred model.Credential, password string, roles []string) (model.Credential, error)
	// VerifyPassword compares password with cred's hash. A zero Credential
	// costs the same as a real one and never matches.
	VerifyPassword(ctx context.Context, cred model.Credential, password string) (bool, error)
	RolesForUser(ctx context.Context, cred model.Credential) ([]string, error)
}

type tokenIssuer interface {
	Issue(claims model.ClaimSet, ttl time.Duration) (model.Token, error)
}

type AuthService struct {
	store        CredentialStore
	tokens       tokenIssuer
	audit        *AuditService
	defaultRoles []string
}

func NewAuthService(store CredentialStore, tokens tokenIssuer, audit *AuditService, defaultRoles []string) *AuthService {
	return &AuthService{
		store:        store,
		tokens:       tokens,
		audit:        audit,
		defaultRoles: append([]string(nil), defaultRoles...),
	}
}

// Register validates the request and creates a credential with the default
// roles. Input shape is checked before the store is touched.
func (s *AuthService) Register(ctx context.Context, req model.RegistrationRequest) error {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	_, err := s.store.FindByUsername(ctx, req.Username)
	switch {
	case err == nil:
		s.audit.Log(ctx, AuditActionRegister, req.Username, AuditStatusFailure, "username taken")
		return model.ErrUserAlreadyExists
	case !errors.Is(err, model.ErrUserNotFound):
		return registrationFailure(s.storeFailure("find user", err))
	}

	_, err = s.store.Create(ctx, model.Credential{Username: req.Username, Email: req.Email}, req.Password, s.defaultRoles)
	if errors.Is(err, model.ErrUserAlreadyExists) {
		s.audit.Log(ctx, AuditActionRegister, req.Username, AuditStatusFailure, "username taken")
		return model.ErrUserAlreadyExists
	}
	if err != nil {
		s.audit.Log(ctx, AuditActionRegister, req.Username, AuditStatusFailure, "create rejected")
		return registrationFailure(s.storeFailure("create user", err))
	}

	s.audit.Log(ctx, AuditActionRegister, req.Username, AuditStatusSuccess, "")
	return nil
}

// Login verifies the credentials and issues a token. Unknown users and wrong
// passwords both yield model.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return model.LoginResponse{}, validationError(err)
	}

	cred, err := s.store.FindByUsername(ctx, req.Username)
	if errors.Is(err, model.ErrUserNotFound) {
		_, _ = s.store.VerifyPassword(ctx, model.Credential{}, req.Password)
		s.audit.Log(ctx, AuditActionLogin, req.Username, AuditStatusFailure, "invalid credentials")
		return model.LoginResponse{}, model.ErrUnauthorized
	}
	if err != nil {
		return model.LoginResponse{}, s.storeFailure("find user", err)
	}

	ok, err := s.store.VerifyPassword(ctx, cred, req.Password)
	if err != nil {
		return model.LoginResponse{}, s.storeFailure("verify password", err)
	}
	if !ok {
		s.audit.Log(ctx, AuditActionLogin, req.Username, AuditStatusFailure, "invalid credentials")
		return model.LoginResponse{}, model.ErrUnauthorized
	}

	roles, err := s.store.RolesForUser(ctx, cred)
	if err != nil {
		return model.LoginResponse{}, s.storeFailure("list roles", err)
	}

	token, err := s.tokens.Issue(model.NewClaimSet(cred.Username, uuid.NewString(), roles...), LoginTokenTTL)
	if err != nil {
		return model.LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}

	s.audit.Log(ctx, AuditActionLogin, cred.Username, AuditStatusSuccess, "")
	return model.LoginResponse{Token: token.Raw, Expiration: token.ExpiresAt}, nil
}

// EnsureAdmin creates an account holding the admin role unless the username
// already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username string, password string) error {
	_, err := s.store.FindByUsername(ctx, username)
	if err == nil {
		slog.Info("admin account present", "username", username)
		return nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return fmt.Errorf("look up admin account: %w", err)
	}

	roles := append([]string{AdminRole}, s.defaultRoles...)
	_, err = s.store.Create(ctx, model.Credential{Username: username, Email: username + "@localhost"}, password, roles)
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	slog.Info("admin account created", "username", username)
	return nil
}

func (s *AuthService) storeFailure(operation string, err error) error {
	slog.Error("credential store failure", "operation", operation, "error", err)
	return fmt.Errorf("%w: %s", model.ErrStoreFailure, operation)
}

// registrationFailure marks a store failure as having happened during
// account creation. The result matches both sentinels.
func registrationFailure(err error) error {
	return fmt.Errorf("%w: %w", model.ErrRegistrationFailed, err)
}

func validationError(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return apierror.New("BAD_REQUEST", "invalid request", "", http.StatusBadRequest)
	}

	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		fields[field] = fieldErr.Error()
	}
	return apierror.Validation(fields)
}
