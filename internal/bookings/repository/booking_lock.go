package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nathidaum/spots-backend/pkg/config"
	"github.com/nathidaum/spots-backend/pkg/model"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository serializes booking creation per spot. Acquire inserts
// a lock document keyed by spot id; a duplicate-key error means another writer
// holds the spot. Release only deletes the caller's own lock, so a slow writer
// whose lock was reaped by TTL cannot delete a successor's lock.
type BookingLockRepository interface {
	Acquire(ctx context.Context, lock *model.BookingLock) error
	Release(ctx context.Context, lockID, owner string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()
	lock.ExpiresAt = lock.CreatedAt.Add(r.cfg.BookingLockTTL)

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("failed to acquire booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}
