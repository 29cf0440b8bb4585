package interceptor

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdict/djdict-api/shared/auth"
)

func newRegisteredClaims() jwt.Claims { return &jwt.RegisteredClaims{} }

func signed(t *testing.T, a auth.JWTAuthenticator, subject string) string {
	t.Helper()
	now := time.Now()
	token, err := a.GenerateToken(jwt.RegisteredClaims{
		Issuer:    a.Issuer(),
		Audience:  jwt.ClaimStrings{a.Audience()},
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	require.NoError(t, err)
	return token
}

func TestJWTMiddleware(t *testing.T) {
	a := auth.NewJWTAuthenticator("djdict", "djdict-auth", "secret")
	other := auth.NewJWTAuthenticator("djdict", "djdict-auth", "other-secret")

	var gotSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext[*jwt.RegisteredClaims](r.Context())
		require.True(t, ok)
		gotSubject = claims.Subject
		w.WriteHeader(http.StatusNoContent)
	})
	handler := NewJWTMiddleware(a, newRegisteredClaims, nil)(next)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid token", header: "Bearer " + signed(t, a, "account-1"), status: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer " + signed(t, a, "account-1"), status: http.StatusNoContent},
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic Zm9vOmJhcg==", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "foreign signature", header: "Bearer " + signed(t, other, "account-1"), status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSubject = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "account-1", gotSubject)
			}
		})
	}
}

func TestJWTMiddlewareCustomErrorHandler(t *testing.T) {
	a := auth.NewJWTAuthenticator("djdict", "djdict-auth", "secret")

	var gotErr error
	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusTeapot)
	}
	handler := NewJWTMiddleware(a, newRegisteredClaims, onError)(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, gotErr, ErrMissingAuthorization)
}

func TestClaimsFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := ClaimsFromContext[*jwt.RegisteredClaims](req.Context())
	assert.False(t, ok)
}
