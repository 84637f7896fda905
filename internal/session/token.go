// Package session owns the client-side session: bearer-token expiry
// inspection, the session-expired event channel, the durable token store,
// and the lifecycle manager that keeps them consistent.
package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiryBuffer is subtracted from a token's expiry so the session
// ends before a request can hit a truly-expired token.
const DefaultExpiryBuffer = 30 * time.Second

// shortTokenBuffer caps the buffer for short-lived tokens (e.g. 30s demo
// tokens) so the buffer does not consume the whole lifetime.
const shortTokenBuffer = 5 * time.Second

type tokenClaims struct {
	Exp *jwt.NumericDate `json:"exp"`
	Iat *jwt.NumericDate `json:"iat"`
}

// decodeClaims reads exp/iat from the token's payload segment without
// verifying the signature. The client never holds the signing key; it only
// schedules around the expiry the server embedded. Never panics; any
// malformed input is reported as !ok.
func decodeClaims(token string) (claims tokenClaims, ok bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return tokenClaims{}, false
	}
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return tokenClaims{}, false
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return tokenClaims{}, false
	}
	return claims, true
}

// DecodeExpiry returns the token's exp claim in epoch milliseconds.
// ok is false when the token is malformed or carries no exp claim; that is
// a normal outcome, not an error.
func DecodeExpiry(token string) (expiresAtMs int64, ok bool) {
	claims, ok := decodeClaims(token)
	if !ok || claims.Exp == nil {
		return 0, false
	}
	return claims.Exp.Time.UnixMilli(), true
}

// IsExpired reports whether the token should be treated as expired at now,
// applying an adaptive buffer. Undecodable tokens and tokens without exp
// are expired (fail safe).
//
// The buffer normally equals baseBuffer, but when the token's total
// lifetime (exp-iat) is at most twice baseBuffer the buffer shrinks to
// min(5s, 10% of the lifetime). The full buffer exists to end the session
// before a real request fails; it must not pre-expire intentionally
// short-lived tokens.
func IsExpired(token string, now time.Time, baseBuffer time.Duration) bool {
	claims, ok := decodeClaims(token)
	if !ok || claims.Exp == nil {
		return true
	}
	expiry := claims.Exp.Time

	buffer := baseBuffer
	if claims.Iat != nil {
		lifetime := expiry.Sub(claims.Iat.Time)
		if lifetime > 0 && lifetime <= 2*baseBuffer {
			buffer = lifetime / 10
			if buffer > shortTokenBuffer {
				buffer = shortTokenBuffer
			}
		}
	}

	return !now.Before(expiry.Add(-buffer))
}
