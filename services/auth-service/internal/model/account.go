package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Account represents a dictionary author's identity. Accounts are created inactive and
// become active once the registration e-mail is confirmed.
type Account struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	Active       bool          `bson:"active"`
	LastLoginAt  *time.Time    `bson:"last_login_at"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}
