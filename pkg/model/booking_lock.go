package model

import "time"

// BookingLock is an advisory lock document serializing booking creation per
// spot. The lock id is the spot id, so a unique-index insert either wins the
// spot or collides with the concurrent writer. Expired locks are reaped by a
// TTL index on expires_at.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
