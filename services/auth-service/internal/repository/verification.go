package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/djdict/djdict-api/services/auth-service/internal/model"
)

// VerificationRepository persists pending e-mail confirmations keyed by token hash.
type VerificationRepository interface {
	// CreateVerification stores a new pending confirmation.
	CreateVerification(ctx context.Context, verification *model.Verification) (*model.Verification, error)

	// ConsumeVerification atomically removes and returns the record whose token hash
	// matches and which has not expired at now. found is false on any miss.
	ConsumeVerification(ctx context.Context, tokenHash string, now time.Time) (v *model.Verification, found bool, err error)

	// DeleteAccountVerifications removes every record of the account.
	DeleteAccountVerifications(ctx context.Context, accountID string) (int64, error)
}

const verificationCollection = "verifications"

// Expired confirmations are inert; the TTL index only reclaims storage after this delay.
const verificationRetention = 7 * 24 * time.Hour

type verificationMongoRepository struct {
	db *mongo.Database
}

// NewVerificationMongoRepository creates a MongoDB repository for pending confirmations.
func NewVerificationMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) VerificationRepository {
	collection := db.Collection(verificationCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "account_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(verificationRetention.Seconds())),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create verification indexes")
	}

	return &verificationMongoRepository{db: db}
}

func (r *verificationMongoRepository) CreateVerification(
	ctx context.Context,
	verification *model.Verification,
) (*model.Verification, error) {
	result, err := r.db.Collection(verificationCollection).InsertOne(ctx, verification)
	if err != nil {
		return nil, mapError(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		verification.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return verification, nil
}

func (r *verificationMongoRepository) ConsumeVerification(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*model.Verification, bool, error) {
	filter := bson.M{
		"token_hash": tokenHash,
		"expires_at": bson.M{"$gte": now},
	}

	// A single FindOneAndDelete lets at most one concurrent caller win the record.
	result := r.db.Collection(verificationCollection).FindOneAndDelete(ctx, filter)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var verification model.Verification
	if err := result.Decode(&verification); err != nil {
		return nil, false, err
	}

	return &verification, true, nil
}

func (r *verificationMongoRepository) DeleteAccountVerifications(ctx context.Context, accountID string) (int64, error) {
	oid, err := objectID(accountID)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Collection(verificationCollection).DeleteMany(ctx, bson.M{"account_id": oid})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}
