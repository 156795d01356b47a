package service

import (
	"context"
	"time"

	"github.com/nathidaum/spots-backend/pkg/kafka"
	"github.com/nathidaum/spots-backend/pkg/model"
)

const (
	EventBookingCreated  = "booking.created"
	EventBookingCanceled = "booking.canceled"

	eventSource = "spots-backend"
)

// BookingEvent is the payload published to the booking event topic. Consumers
// key on the spot id, so all events for one spot land in the same partition.
type BookingEvent struct {
	BookingID     string    `json:"bookingId"`
	SpotID        string    `json:"spotId"`
	UserID        string    `json:"userId"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	Status        string    `json:"status"`
	CreatedByHost bool      `json:"createdByHost"`
}

// publishEvent emits a booking lifecycle event. Publishing is best effort:
// the booking is already committed, so a broker failure only logs a warning.
func (s *bookingService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	if s.producer == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.SpotID).
		WithEventType(eventType).
		WithSource(eventSource).
		WithValue(BookingEvent{
			BookingID:     booking.ID,
			SpotID:        booking.SpotID,
			UserID:        booking.UserID,
			StartDate:     booking.StartDate,
			EndDate:       booking.EndDate,
			Status:        booking.Status,
			CreatedByHost: booking.CreatedByHost,
		}).
		Build()

	if err := s.producer.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
