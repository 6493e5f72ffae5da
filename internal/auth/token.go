// Package auth supplies and checks the bearer token forwarded to the agent
// runtime and the document-store function.
package auth

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("no authentication token")
	ErrTokenExpired = errors.New("authentication token expired")
	ErrInvalidToken = errors.New("invalid authentication token")
)

// TokenSource yields the current bearer token.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed token.
type StaticToken string

func (s StaticToken) Token() (string, error) {
	tok := strings.TrimSpace(string(s))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// EnvToken reads the token from an environment variable on every call.
type EnvToken string

func (e EnvToken) Token() (string, error) {
	return StaticToken(os.Getenv(string(e))).Token()
}

// Check rejects empty tokens and JWTs whose exp claim is before now.
// Signatures are not verified here; the runtime does that. Opaque
// non-JWT tokens pass.
func Check(token string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	if strings.Count(token, ".") != 2 {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return ErrInvalidToken
	}
	if exp != nil && !now.Before(exp.Time) {
		return ErrTokenExpired
	}
	return nil
}

// BearerFromHeader extracts the token from an Authorization header value.
func BearerFromHeader(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
