package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// TerminationState is the user's choice when terminating an account.
type TerminationState string

const (
	// TerminationFreeze keeps the account frozen until the next login.
	TerminationFreeze TerminationState = "freeze"
	// TerminationDelete schedules permanent deletion after the grace period.
	TerminationDelete TerminationState = "delete"
)

// Valid reports whether s is a known termination choice.
func (s TerminationState) Valid() bool {
	return s == TerminationFreeze || s == TerminationDelete
}

// TerminationRequest is a pending freeze or delete decision. There is at most one per
// account, and its presence means the account is presented as frozen.
type TerminationRequest struct {
	ID        bson.ObjectID    `bson:"_id,omitempty"`
	AccountID bson.ObjectID    `bson:"account_id"`
	State     TerminationState `bson:"state"`
	CreatedAt time.Time        `bson:"created_at"`
}
