package model

import "time"

// Token is a signed, serialized bearer token and the window it is valid for.
type Token struct {
	Raw       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
