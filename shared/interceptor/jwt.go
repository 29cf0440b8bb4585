package interceptor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/djdict/djdict-api/shared/auth"
)

type contextKey struct{}

// UserClaimsKey holds the validated claims of the bearer token.
var UserClaimsKey = contextKey{}

var (
	ErrMissingAuthorization   = errors.New("missing authorization header")
	ErrMalformedAuthorization = errors.New("invalid authorization header format")
)

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// NewJWTMiddleware validates the bearer token of every request and stores the parsed
// claims under UserClaimsKey. newClaims must return a fresh pointer for each request.
func NewJWTMiddleware(
	jwtAuth auth.JWTAuthenticator,
	newClaims func() jwt.Claims,
	onError ErrorHandler,
) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := BearerToken(r)
			if err != nil {
				onError(w, r, err)
				return
			}

			claims := newClaims()
			if _, err := jwtAuth.ValidateTokenWithClaims(tokenString, claims); err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMalformedAuthorization
	}

	return strings.TrimSpace(parts[1]), nil
}

// ClaimsFromContext returns the claims stored by the middleware.
func ClaimsFromContext[C jwt.Claims](ctx context.Context) (C, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(C)
	return claims, ok
}
