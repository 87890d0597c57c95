// Package auth provides bearer token authentication for the API routes.
// Tokens are HS256 JWTs signed with JWT_SECRET and must carry sub and exp.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"text-digest/internal/handler/http/requestid"
	"text-digest/internal/handler/http/respond"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxSubject ctxKey = "subject"

var (
	// ErrMissingToken indicates an absent or malformed Authorization header.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken indicates a token that fails signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")
)

// Middleware returns middleware that requires a valid bearer token.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := Validate(r.Header.Get("Authorization"), secret)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="text-digest"`)
				respond.Error(w, http.StatusUnauthorized, "unauthorized: "+err.Error(),
					requestid.FromContext(r.Context()))
				return
			}
			ctx := context.WithValue(r.Context(), ctxSubject, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Validate checks an Authorization header value and returns the token subject.
func Validate(authz string, secret []byte) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", ErrMissingToken
	}

	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(strings.TrimPrefix(authz, prefix), &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: sub claim is required", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// NewToken issues a signed token for subject that expires after ttl.
func NewToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(ctxSubject).(string)
	return sub
}
