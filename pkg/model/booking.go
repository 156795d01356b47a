package model

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCanceled  = "canceled"
	BookingStatusCompleted = "completed"
	// BookingStatusBlocked marks a hold the host placed on their own spot.
	BookingStatusBlocked = "blocked"
)

type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID        string    `json:"userId" bson:"userId" validate:"required,mongodb"`
	SpotID        string    `json:"spotId" bson:"spotId" validate:"required,mongodb"`
	StartDate     time.Time `json:"startDate" bson:"startDate" validate:"required"`
	EndDate       time.Time `json:"endDate" bson:"endDate" validate:"required"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed canceled completed blocked"`
	CreatedByHost bool      `json:"createdByHost" bson:"createdByHost"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt" validate:"omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty" validate:"omitempty"`
}

// Interval returns the booked date range.
func (b *Booking) Interval() DateRange {
	return DateRange{StartDate: b.StartDate, EndDate: b.EndDate}.Normalize()
}

// Active reports whether the booking still occupies its spot interval.
func (b *Booking) Active() bool {
	return b.Status != BookingStatusCanceled
}

type BookingRequest struct {
	SpotID    string    `json:"spotId" validate:"required,mongodb"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
	Status    string    `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed blocked"`
}
