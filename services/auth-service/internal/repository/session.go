package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/djdict/djdict-api/services/auth-service/internal/model"
)

// SessionRepository defines the interface for session-related database operations.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) (*model.Session, error)
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)

	// RevokeSession removes a single session and reports whether it existed.
	RevokeSession(ctx context.Context, sessionID string) (bool, error)

	// RevokeAccountSessions removes every session of the account on every device.
	RevokeAccountSessions(ctx context.Context, accountID string) (int64, error)

	// RevokeOtherSessions removes every session of the account except keepSessionID.
	RevokeOtherSessions(ctx context.Context, accountID, keepSessionID string) (int64, error)
}

const sessionCollection = "sessions"

type sessionMongoRepository struct {
	db *mongo.Database
}

// NewSessionMongoRepository creates a MongoDB session repository and ensures its indexes.
func NewSessionMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) SessionRepository {
	collection := db.Collection(sessionCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "account_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session indexes")
	}

	return &sessionMongoRepository{db: db}
}

func (r *sessionMongoRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	result, err := r.db.Collection(sessionCollection).InsertOne(ctx, session)
	if err != nil {
		return nil, mapError(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		session.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return session, nil
}

func (r *sessionMongoRepository) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	result := r.db.Collection(sessionCollection).FindOne(ctx, bson.M{"session_id": sessionID})
	if result.Err() != nil {
		return nil, mapError(result.Err())
	}

	var session model.Session
	if err := result.Decode(&session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *sessionMongoRepository) RevokeSession(ctx context.Context, sessionID string) (bool, error) {
	result, err := r.db.Collection(sessionCollection).DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return false, err
	}

	return result.DeletedCount > 0, nil
}

func (r *sessionMongoRepository) RevokeAccountSessions(ctx context.Context, accountID string) (int64, error) {
	oid, err := objectID(accountID)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Collection(sessionCollection).DeleteMany(ctx, bson.M{"account_id": oid})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

func (r *sessionMongoRepository) RevokeOtherSessions(
	ctx context.Context,
	accountID string,
	keepSessionID string,
) (int64, error) {
	oid, err := objectID(accountID)
	if err != nil {
		return 0, err
	}

	filter := bson.M{
		"account_id": oid,
		"session_id": bson.M{"$ne": keepSessionID},
	}

	result, err := r.db.Collection(sessionCollection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}
