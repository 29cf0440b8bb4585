package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Verification is a pending e-mail confirmation. A nil NewEmail marks an account
// activation; otherwise the account's e-mail becomes NewEmail once confirmed.
type Verification struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	AccountID bson.ObjectID `bson:"account_id"`
	TokenHash string        `bson:"token_hash"`
	NewEmail  *string       `bson:"new_email"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}

// IsEmailChange reports whether confirming the record changes the account's e-mail.
func (v *Verification) IsEmailChange() bool {
	return v.NewEmail != nil
}
