package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Session represents one authenticated login of an account on one device or browser.
type Session struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	SessionID string        `bson:"session_id"`
	AccountID bson.ObjectID `bson:"account_id"`
	ExpiresAt time.Time     `bson:"expires_at"`
	IPAddress *string       `bson:"ip_address"`
	UserAgent *string       `bson:"user_agent"`
	CreatedAt time.Time     `bson:"created_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
