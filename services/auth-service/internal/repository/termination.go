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

// TerminationRepository tracks pending freeze/delete requests, at most one per account.
type TerminationRepository interface {
	// EnqueueTermination creates the account's request or replaces the existing one.
	EnqueueTermination(ctx context.Context, request *model.TerminationRequest) (*model.TerminationRequest, error)

	// CancelTermination removes the account's request and reports whether one existed.
	CancelTermination(ctx context.Context, accountID string) (bool, error)

	// GetTermination returns the account's pending request, if any.
	GetTermination(ctx context.Context, accountID string) (req *model.TerminationRequest, found bool, err error)
}

const terminationCollection = "termination_requests"

type terminationMongoRepository struct {
	db *mongo.Database
}

// NewTerminationMongoRepository creates a MongoDB termination queue and ensures its indexes.
func NewTerminationMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) TerminationRepository {
	collection := db.Collection(terminationCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create termination request indexes")
	}

	return &terminationMongoRepository{db: db}
}

func (r *terminationMongoRepository) EnqueueTermination(
	ctx context.Context,
	request *model.TerminationRequest,
) (*model.TerminationRequest, error) {
	replacement := bson.M{
		"account_id": request.AccountID,
		"state":      request.State,
		"created_at": request.CreatedAt,
	}

	result := r.db.Collection(terminationCollection).FindOneAndReplace(
		ctx,
		bson.M{"account_id": request.AccountID},
		replacement,
		options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, mapError(result.Err())
	}

	var stored model.TerminationRequest
	if err := result.Decode(&stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

func (r *terminationMongoRepository) CancelTermination(ctx context.Context, accountID string) (bool, error) {
	oid, err := objectID(accountID)
	if err != nil {
		return false, err
	}

	result, err := r.db.Collection(terminationCollection).DeleteOne(ctx, bson.M{"account_id": oid})
	if err != nil {
		return false, err
	}

	return result.DeletedCount > 0, nil
}

func (r *terminationMongoRepository) GetTermination(
	ctx context.Context,
	accountID string,
) (*model.TerminationRequest, bool, error) {
	oid, err := objectID(accountID)
	if err != nil {
		return nil, false, err
	}

	result := r.db.Collection(terminationCollection).FindOne(ctx, bson.M{"account_id": oid})
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var request model.TerminationRequest
	if err := result.Decode(&request); err != nil {
		return nil, false, err
	}

	return &request, true, nil
}
