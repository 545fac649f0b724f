package service

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-jwt-auth/internal/model"
)

type CodecOption func(*TokenCodec)

// WithClock replaces the time source used for issuing and validating.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// TokenCodec signs and validates HS256 bearer tokens. The key, issuer and
// audience are fixed at construction and shared by both directions.
type TokenCodec struct {
	key      []byte
	issuer   string
	audience string
	now      func() time.Time
	parser   *jwt.Parser
}

type tokenClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func NewTokenCodec(key string, issuer string, audience string, opts ...CodecOption) (*TokenCodec, error) {
	if key == "" {
		return nil, errors.New("token signing key is required")
	}
	if issuer == "" || audience == "" {
		return nil, errors.New("token issuer and audience are required")
	}

	c := &TokenCodec{
		key:      []byte(key),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	return c, nil
}

// Issue signs claims into a token valid from now until now+ttl. The claim set
// must carry exactly one subject and one token id.
func (c *TokenCodec) Issue(claims model.ClaimSet, ttl time.Duration) (model.Token, error) {
	if ttl <= 0 {
		return model.Token{}, fmt.Errorf("%w: ttl must be positive", model.ErrInvalidClaims)
	}

	subject, tokenID, roles, err := splitClaims(claims)
	if err != nil {
		return model.Token{}, err
	}

	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl).Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{c.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ID:        tokenID,
		},
	})

	raw, err := token.SignedString(c.key)
	if err != nil {
		return model.Token{}, fmt.Errorf("sign token: %w", err)
	}

	return model.Token{Raw: raw, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Validate checks signature, expiry, issuer and audience, in that order, and
// returns the embedded claims. Every failure is model.ErrUnauthorized.
func (c *TokenCodec) Validate(raw string) (model.ClaimSet, error) {
	var claims tokenClaims
	_, err := c.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return reject(rejectionReason(err))
	}

	if claims.Issuer != c.issuer {
		return reject("issuer")
	}
	if !slices.Contains(claims.Audience, c.audience) {
		return reject("audience")
	}
	if claims.Subject == "" || claims.ID == "" {
		return reject("claims")
	}

	return model.NewClaimSet(claims.Subject, claims.ID, claims.Roles...), nil
}

func reject(reason string) (model.ClaimSet, error) {
	slog.Debug("bearer token rejected", "reason", reason)
	return nil, model.ErrUnauthorized
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "signature"
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "expired"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "not_yet_valid"
	default:
		return "invalid"
	}
}

func splitClaims(claims model.ClaimSet) (subject string, tokenID string, roles []string, err error) {
	for _, claim := range claims {
		if claim.Value == "" {
			return "", "", nil, fmt.Errorf("%w: empty %s claim", model.ErrInvalidClaims, claim.Type)
		}

		switch claim.Type {
		case model.ClaimSubject:
			if subject != "" {
				return "", "", nil, fmt.Errorf("%w: duplicate subject", model.ErrInvalidClaims)
			}
			subject = claim.Value
		case model.ClaimTokenID:
			if tokenID != "" {
				return "", "", nil, fmt.Errorf("%w: duplicate token id", model.ErrInvalidClaims)
			}
			tokenID = claim.Value
		case model.ClaimRole:
			roles = append(roles, claim.Value)
		default:
			return "", "", nil, fmt.Errorf("%w: unsupported claim type %q", model.ErrInvalidClaims, claim.Type)
		}
	}

	if subject == "" || tokenID == "" {
		return "", "", nil, fmt.Errorf("%w: subject and token id are required", model.ErrInvalidClaims)
	}

	return subject, tokenID, roles, nil
}
