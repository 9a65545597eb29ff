package utils // package utils provides helper functions for tokens, hashing and text

import (
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionTTL is how long an admin session stays valid after login.
const SessionTTL = 8 * time.Hour

// SessionCookieName is the cookie that carries the admin session token.
const SessionCookieName = "admin_session"

// NewSessionToken builds and signs an HS256 JWT for the admin session.  The
// token carries only issued-at and expiration claims; there is a single
// shared admin identity, so no subject is needed.  Verification recomputes
// the keyed hash and compares it in constant time inside the JWT library.
func NewSessionToken(secret string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(SessionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// VerifySessionToken reports whether raw is a valid, unexpired admin session
// token signed with secret.  Expiry is enforced from the embedded exp claim,
// so a stale cookie fails verification even if the browser kept it around.
func VerifySessionToken(secret, raw string) bool {
	if raw == "" {
		return false
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	return err == nil && tok.Valid
}
