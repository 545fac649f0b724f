package model

import "time"

// Credential is a stored user record. PasswordHash is never serialized.
type Credential struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type LoginResponse struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}

type MeResponse struct {
	Username string   `json:"username"`
	TokenID  string   `json:"token_id"`
	Roles    []string `json:"roles"`
}
