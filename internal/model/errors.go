package model

import "errors"

var (
	// Credential store outcomes. ErrRegistrationFailed accompanies
	// ErrStoreFailure when the store failed while creating an account.
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrStoreFailure       = errors.New("credential store failure")
	ErrRegistrationFailed = errors.New("registration failed")

	// Authentication outcomes. ErrUnauthorized is the only error callers see
	// for bad credentials or rejected tokens.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Token issuance
	ErrInvalidClaims = errors.New("invalid claim set")
)
