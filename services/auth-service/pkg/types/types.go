package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are carried by the bearer token handed out on login. The token only
// names a session; the session record stays authoritative and may be revoked early.
type SessionClaims struct {
	AccountID string `json:"account_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// SessionToken is returned to the client after a successful login.
type SessionToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
