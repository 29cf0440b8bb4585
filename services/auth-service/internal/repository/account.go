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

// AccountRepository defines the interface for account-related database operations.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdateAccount(ctx context.Context, id string, params UpdateAccountParams) (*model.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// UpdateAccountParams defines the optional parameters for updating an account.
// Only the fields that are not nil will be updated.
type UpdateAccountParams struct {
	Email        *string
	PasswordHash *string
	Active       *bool
}

// IsEmpty reports whether no field would be updated.
func (p UpdateAccountParams) IsEmpty() bool {
	return p.Email == nil && p.PasswordHash == nil && p.Active == nil
}

var errNothingToUpdate = errors.New("no account fields to update")

const accountCollection = "accounts"

type accountMongoRepository struct {
	db *mongo.Database
}

// NewAccountMongoRepository creates a MongoDB account repository and ensures its indexes.
func NewAccountMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) AccountRepository {
	collection := db.Collection(accountCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create account indexes")
	}

	return &accountMongoRepository{db: db}
}

func (r *accountMongoRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	result, err := r.db.Collection(accountCollection).InsertOne(ctx, account)
	if err != nil {
		return nil, mapError(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		account.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return account, nil
}

func (r *accountMongoRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *accountMongoRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *accountMongoRepository) UpdateAccount(
	ctx context.Context,
	id string,
	params UpdateAccountParams,
) (*model.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	if params.IsEmpty() {
		return nil, errNothingToUpdate
	}

	updateMap := bson.M{"updated_at": time.Now().UTC()}
	if params.Email != nil {
		updateMap["email"] = *params.Email
	}
	if params.PasswordHash != nil {
		updateMap["password_hash"] = *params.PasswordHash
	}
	if params.Active != nil {
		updateMap["active"] = *params.Active
	}

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, mapError(result.Err())
	}

	var account model.Account
	if err := result.Decode(&account); err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *accountMongoRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"last_login_at": at}},
	)
	return err
}

func (r *accountMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Account, error) {
	result := r.db.Collection(accountCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		return nil, mapError(result.Err())
	}

	var account model.Account
	if err := result.Decode(&account); err != nil {
		return nil, err
	}

	return &account, nil
}
