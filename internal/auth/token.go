// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the session token lifetime used when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// tokenIssuerName is the iss claim stamped on every minted token.
const tokenIssuerName = "meshwork"

// Claims is the signed claim set carried by a session token.
type Claims struct {
	jwt.RegisteredClaims

	// PrincipalID identifies the authenticated principal.
	PrincipalID string `json:"pid"`
}

// TokenIssuer mints and verifies stateless session tokens (HS256 JWTs).
// The signing key is process-wide configuration; tokens are never persisted
// and there is no server-side revocation list.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer with the given signing secret and
// token lifetime. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_NO_SECRET").Errorf("signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl}, nil
}

// Issue mints a signed token for the principal, expiring after the
// configured lifetime.
func (t *TokenIssuer) Issue(principalID ulid.ULID) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		PrincipalID: principalID.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
// Malformed tokens, bad signatures, and past expiry all yield
// ErrInvalidToken; expiry is a normal outcome, not a fault.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuerName))
	if err != nil || !parsed.Valid {
		return nil, oops.Code("TOKEN_INVALID").Wrap(ErrInvalidToken)
	}
	if _, parseErr := ulid.Parse(claims.PrincipalID); parseErr != nil {
		return nil, oops.Code("TOKEN_INVALID").Wrap(ErrInvalidToken)
	}
	return claims, nil
}

// Refresh re-issues a token from a still-valid token's claims without
// requiring the password again.
//
// Policy: a token past its expiry is not refreshable. Clients must
// re-authenticate once a token has lapsed; refresh only extends sessions
// that are still live.
func (t *TokenIssuer) Refresh(token string) (string, error) {
	claims, err := t.Verify(token)
	if err != nil {
		return "", err
	}
	id, err := ulid.Parse(claims.PrincipalID)
	if err != nil {
		return "", oops.Code("TOKEN_INVALID").Wrap(ErrInvalidToken)
	}
	return t.Issue(id)
}

// PrincipalFromClaims extracts the principal ID from a verified claim set.
func PrincipalFromClaims(claims *Claims) (ulid.ULID, error) {
	id, err := ulid.Parse(claims.PrincipalID)
	if err != nil {
		return ulid.ULID{}, errors.Join(ErrInvalidToken, err)
	}
	return id, nil
}
