package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"go-jwt-auth/internal/model"
)

const (
	testKey      = "test-signing-key-0123456789abcdef"
	testIssuer   = "https://auth.example.test"
	testAudience = "https://api.example.test"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestCodec(t *testing.T, clock *fakeClock) *TokenCodec {
	t.Helper()

	codec, err := NewTokenCodec(testKey, testIssuer, testAudience, WithClock(clock.Now))
	require.NoError(t, err)
	return codec
}

func TestTokenCodecRoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	cases := map[string]model.ClaimSet{
		"no roles":       model.NewClaimSet("alice", "id-1"),
		"single role":    model.NewClaimSet("alice", "id-2", "user"),
		"ordered roles":  model.NewClaimSet("bob", "id-3", "admin", "user", "auditor"),
		"unicode claims": model.NewClaimSet("zoë", "id-4", "rôle"),
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			token, err := codec.Issue(claims, LoginTokenTTL)
			require.NoError(t, err)
			require.True(t, clock.now.Equal(token.IssuedAt))
			require.True(t, clock.now.Add(LoginTokenTTL).Equal(token.ExpiresAt))

			decoded, err := codec.Validate(token.Raw)
			require.NoError(t, err)
			require.Equal(t, claims, decoded)
		})
	}
}

func TestTokenCodecEmbedsRegisteredClaims(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	token, err := codec.Issue(model.NewClaimSet("alice", "id-1", "user"), LoginTokenTTL)
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token.Raw, &tokenClaims{})
	require.NoError(t, err)
	require.Equal(t, "HS256", parsed.Header["alg"])

	claims := parsed.Claims.(*tokenClaims)
	require.Equal(t, testIssuer, claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{testAudience}, claims.Audience)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, "id-1", claims.ID)
	require.Equal(t, []string{"user"}, claims.Roles)
	require.True(t, clock.now.Equal(claims.NotBefore.Time))
	require.True(t, clock.now.Add(10*time.Minute).Equal(claims.ExpiresAt.Time))
}

func TestTokenCodecRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	token, err := codec.Issue(model.NewClaimSet("alice", "id-1"), LoginTokenTTL)
	require.NoError(t, err)

	clock.Advance(LoginTokenTTL - time.Second)
	_, err = codec.Validate(token.Raw)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = codec.Validate(token.Raw)
	require.ErrorIs(t, err, model.ErrUnauthorized)

	clock.Advance(time.Hour)
	_, err = codec.Validate(token.Raw)
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestTokenCodecRejectsTokenBeforeNotBefore(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	token, err := codec.Issue(model.NewClaimSet("alice", "id-1"), LoginTokenTTL)
	require.NoError(t, err)

	clock.Advance(-time.Minute)
	_, err = codec.Validate(token.Raw)
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestTokenCodecRejectsForeignOrTamperedTokens(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)
	claims := model.NewClaimSet("alice", "id-1", "user")

	build := func(t *testing.T, key string, issuer string, audience string) string {
		t.Helper()
		other, err := NewTokenCodec(key, issuer, audience, WithClock(clock.Now))
		require.NoError(t, err)
		token, err := other.Issue(claims, LoginTokenTTL)
		require.NoError(t, err)
		return token.Raw
	}

	valid := build(t, testKey, testIssuer, testAudience)
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)

	forgedPayload, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Roles: []string{"admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "alice",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
			ID:        "id-1",
		},
	}).SigningString()
	require.NoError(t, err)
	tampered := forgedPayload + "." + parts[2]

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "alice",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
			ID:        "id-1",
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   testIssuer,
			Subject:  "alice",
			Audience: jwt.ClaimStrings{testAudience},
			ID:       "id-1",
		},
	}).SignedString([]byte(testKey))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
			ID:        "id-1",
		},
	}).SignedString([]byte(testKey))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "alice",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
			ID:        "id-1",
		},
	}).SignedString([]byte(testKey))
	require.NoError(t, err)

	rejected := map[string]string{
		"empty":              "",
		"garbage":            "not-a-token",
		"two segments":       parts[0] + "." + parts[1],
		"different key":      build(t, "another-signing-key-0123456789abcd", testIssuer, testAudience),
		"different issuer":   build(t, testKey, "https://evil.example.test", testAudience),
		"different audience": build(t, testKey, testIssuer, "https://other.example.test"),
		"tampered payload":   tampered,
		"stripped signature": parts[0] + "." + parts[1] + ".",
		"alg none":           noneToken,
		"missing expiry":     noExpiry,
		"missing subject":    noSubject,
		"unexpected alg":     hs512,
	}

	for name, raw := range rejected {
		t.Run(name, func(t *testing.T) {
			claims, err := codec.Validate(raw)
			require.Nil(t, claims)
			require.Equal(t, model.ErrUnauthorized, err)
		})
	}

	_, err = codec.Validate(valid)
	require.NoError(t, err)
}

func TestTokenCodecIssueRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, &fakeClock{now: time.Now()})

	cases := map[string]model.ClaimSet{
		"missing subject":   {{Type: model.ClaimTokenID, Value: "id"}},
		"missing token id":  {{Type: model.ClaimSubject, Value: "alice"}},
		"empty value":       model.NewClaimSet("alice", "id", ""),
		"duplicate subject": append(model.NewClaimSet("alice", "id"), model.Claim{Type: model.ClaimSubject, Value: "bob"}),
		"unknown type":      append(model.NewClaimSet("alice", "id"), model.Claim{Type: "email", Value: "a@x.com"}),
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Issue(claims, LoginTokenTTL)
			require.ErrorIs(t, err, model.ErrInvalidClaims)
		})
	}

	_, err := codec.Issue(model.NewClaimSet("alice", "id"), 0)
	require.ErrorIs(t, err, model.ErrInvalidClaims)
}

func TestNewTokenCodecRequiresConfiguration(t *testing.T) {
	t.Parallel()

	_, err := NewTokenCodec("", testIssuer, testAudience)
	require.Error(t, err)
	_, err = NewTokenCodec(testKey, "", testAudience)
	require.Error(t, err)
	_, err = NewTokenCodec(testKey, testIssuer, "")
	require.Error(t, err)
}
