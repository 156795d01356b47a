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

	spotserrors "github.com/nathidaum/spots-backend/internal/spots/errors"
	"github.com/nathidaum/spots-backend/pkg/config"
	mongotx "github.com/nathidaum/spots-backend/pkg/db/mongo"
	"github.com/nathidaum/spots-backend/pkg/model"
)

const (
	CollectionName        = "Spots"
	UserCollectionName    = "Users"
	BookingCollectionName = "Bookings"
)

type SpotRepository interface {
	Create(ctx context.Context, spot *model.Spot) error
	FindByID(ctx context.Context, id string) (*model.Spot, error)
	// FindByIDWithRefs loads the spot together with its owner and the
	// booking documents behind its booking references.
	FindByIDWithRefs(ctx context.Context, id string) (*model.SpotDetails, error)
	FindAll(ctx context.Context, filter model.SpotFilter, limit int, offset int64) ([]*model.Spot, error)
	Count(ctx context.Context, filter model.SpotFilter) (int64, error)
	Update(ctx context.Context, id string, spot *model.Spot) error
	Delete(ctx context.Context, id string) error
	PushBookingRef(ctx context.Context, spotID string, interval model.DateRange, bookingID string) error
	PullBookingRef(ctx context.Context, spotID string, interval model.DateRange, bookingID string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoSpotRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	users      *mongo.Collection
	bookings   *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoSpotRepository(cfg *config.Config) SpotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSpotRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		users:      db.Collection(UserCollectionName),
		bookings:   db.Collection(BookingCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics.
func (r *mongoSpotRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoSpotRepository) Create(ctx context.Context, spot *model.Spot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	spot.CreatedAt = now
	spot.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, spot)
	if err != nil {
		return fmt.Errorf("failed to create spot: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		spot.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSpotRepository) FindByID(ctx context.Context, id string) (*model.Spot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", spotserrors.ErrInvalidID, id)
	}

	var spot model.Spot
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&spot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, spotserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find spot: %w", err)
	}

	return &spot, nil
}

func (r *mongoSpotRepository) FindByIDWithRefs(ctx context.Context, id string) (*model.SpotDetails, error) {
	spot, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	details := &model.SpotDetails{Spot: spot, Bookings: []*model.Booking{}}

	if ownerID, err := primitive.ObjectIDFromHex(spot.CreatedBy); err == nil {
		var owner model.User
		err = r.users.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&owner)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to find spot owner: %w", err)
		}
		if err == nil {
			details.Owner = &owner
		}
	}

	bookingIDs := make([]primitive.ObjectID, 0, len(spot.Bookings))
	for _, ref := range spot.Bookings {
		oid, err := primitive.ObjectIDFromHex(ref)
		if err != nil {
			continue
		}
		bookingIDs = append(bookingIDs, oid)
	}

	if len(bookingIDs) > 0 {
		opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}})
		cursor, err := r.bookings.Find(ctx, bson.M{"_id": bson.M{"$in": bookingIDs}}, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to find spot bookings: %w", err)
		}
		defer cursor.Close(ctx)

		if err = cursor.All(ctx, &details.Bookings); err != nil {
			return nil, fmt.Errorf("failed to decode spot bookings: %w", err)
		}
	}

	return details, nil
}

func buildFilterQuery(filter model.SpotFilter) bson.M {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.City != "" {
		query["location.city"] = filter.City
	}
	return query
}

func (r *mongoSpotRepository) FindAll(ctx context.Context, filter model.SpotFilter, limit int, offset int64) ([]*model.Spot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildFilterQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find spots: %w", err)
	}
	defer cursor.Close(ctx)

	spots := []*model.Spot{}
	if err = cursor.All(ctx, &spots); err != nil {
		return nil, fmt.Errorf("failed to decode spots: %w", err)
	}

	return spots, nil
}

func (r *mongoSpotRepository) Count(ctx context.Context, filter model.SpotFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilterQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count spots: %w", err)
	}
	return count, nil
}

func (r *mongoSpotRepository) Update(ctx context.Context, id string, spot *model.Spot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", spotserrors.ErrInvalidID, id)
	}

	spot.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{"$set": bson.M{
		"title":       spot.Title,
		"description": spot.Description,
		"deskCount":   spot.DeskCount,
		"location":    spot.Location,
		"amenities":   spot.Amenities,
		"type":        spot.Type,
		"price":       spot.Price,
		"images":      spot.Images,
		"status":      spot.Status,
		"updatedAt":   spot.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update spot: %w", err)
	}

	if result.MatchedCount == 0 {
		return spotserrors.ErrNotFound
	}

	return nil
}

func (r *mongoSpotRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", spotserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete spot: %w", err)
	}

	if result.DeletedCount == 0 {
		return spotserrors.ErrNotFound
	}

	return nil
}

// PushBookingRef appends the booking's interval to blockedDates and its ID to
// the spot's booking references. Runs inside the booking transaction so the
// spot and booking documents stay consistent.
func (r *mongoSpotRepository) PushBookingRef(ctx context.Context, spotID string, interval model.DateRange, bookingID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(spotID)
	if err != nil {
		return fmt.Errorf("%w: %s", spotserrors.ErrInvalidID, spotID)
	}

	update := bson.M{"$push": bson.M{
		"blockedDates": interval,
		"bookings":     bookingID,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to push booking ref: %w", err)
	}

	if result.MatchedCount == 0 {
		return spotserrors.ErrNotFound
	}

	return nil
}

// PullBookingRef releases a canceled booking's interval and reference.
func (r *mongoSpotRepository) PullBookingRef(ctx context.Context, spotID string, interval model.DateRange, bookingID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(spotID)
	if err != nil {
		return fmt.Errorf("%w: %s", spotserrors.ErrInvalidID, spotID)
	}

	update := bson.M{"$pull": bson.M{
		"blockedDates": bson.M{
			"startDate": interval.StartDate,
			"endDate":   interval.EndDate,
		},
		"bookings": bookingID,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to pull booking ref: %w", err)
	}

	if result.MatchedCount == 0 {
		return spotserrors.ErrNotFound
	}

	return nil
}

func (r *mongoSpotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
