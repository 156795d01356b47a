package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	userserrors "github.com/nathidaum/spots-backend/internal/users/errors"
	"github.com/nathidaum/spots-backend/pkg/config"
	mongotx "github.com/nathidaum/spots-backend/pkg/db/mongo"
	"github.com/nathidaum/spots-backend/pkg/model"
)

const (
	CollectionName     = "Users"
	SpotCollectionName = "Spots"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Delete(ctx context.Context, id string) error
	PushCreatedSpot(ctx context.Context, userID, spotID string) error
	PullCreatedSpot(ctx context.Context, userID, spotID string) error
	PushBooking(ctx context.Context, userID, bookingID string) error
	AddFavorite(ctx context.Context, userID, spotID string) error
	RemoveFavorite(ctx context.Context, userID, spotID string) error
	// PullSpotFromAllFavorites removes a deleted spot from every user's
	// favorites list.
	PullSpotFromAllFavorites(ctx context.Context, spotID string) error
	FindFavoriteSpots(ctx context.Context, userID string) ([]*model.Spot, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoUserRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	spots      *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		spots:      db.Collection(SpotCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics.
func (r *mongoUserRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	if remaining := time.Until(deadline); remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return userserrors.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	var user model.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return &user, nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.DeletedCount == 0 {
		return userserrors.ErrNotFound
	}

	return nil
}

func (r *mongoUserRepository) PushCreatedSpot(ctx context.Context, userID, spotID string) error {
	return r.updateByID(ctx, userID, bson.M{"$push": bson.M{"createdSpots": spotID}})
}

func (r *mongoUserRepository) PullCreatedSpot(ctx context.Context, userID, spotID string) error {
	return r.updateByID(ctx, userID, bson.M{"$pull": bson.M{"createdSpots": spotID}})
}

func (r *mongoUserRepository) PushBooking(ctx context.Context, userID, bookingID string) error {
	return r.updateByID(ctx, userID, bson.M{"$push": bson.M{"bookings": bookingID}})
}

func (r *mongoUserRepository) AddFavorite(ctx context.Context, userID, spotID string) error {
	return r.updateByID(ctx, userID, bson.M{"$addToSet": bson.M{"favorites": spotID}})
}

func (r *mongoUserRepository) RemoveFavorite(ctx context.Context, userID, spotID string) error {
	return r.updateByID(ctx, userID, bson.M{"$pull": bson.M{"favorites": spotID}})
}

func (r *mongoUserRepository) PullSpotFromAllFavorites(ctx context.Context, spotID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.UpdateMany(ctx,
		bson.M{"favorites": spotID},
		bson.M{"$pull": bson.M{"favorites": spotID}},
	)
	if err != nil {
		return fmt.Errorf("failed to pull spot from favorites: %w", err)
	}
	return nil
}

// FindFavoriteSpots dereferences the user's favorites list into full spot
// documents. One-to-many join done explicitly, not via a store-side populate.
func (r *mongoUserRepository) FindFavoriteSpots(ctx context.Context, userID string) ([]*model.Spot, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	ids := make([]primitive.ObjectID, 0, len(user.Favorites))
	for _, fav := range user.Favorites {
		oid, err := primitive.ObjectIDFromHex(fav)
		if err != nil {
			continue
		}
		ids = append(ids, oid)
	}

	if len(ids) == 0 {
		return []*model.Spot{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.spots.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find favorite spots: %w", err)
	}
	defer cursor.Close(ctx)

	var spots []*model.Spot
	if err = cursor.All(ctx, &spots); err != nil {
		return nil, fmt.Errorf("failed to decode favorite spots: %w", err)
	}

	return spots, nil
}

func (r *mongoUserRepository) updateByID(ctx context.Context, userID string, update bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, userID)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}

	return nil
}

func (r *mongoUserRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
