package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nathidaum/spots-backend/internal/authz"
	bookingserrors "github.com/nathidaum/spots-backend/internal/bookings/errors"
	"github.com/nathidaum/spots-backend/internal/bookings/repository"
	"github.com/nathidaum/spots-backend/internal/bookings/validator"
	spotserrors "github.com/nathidaum/spots-backend/internal/spots/errors"
	spotsrepository "github.com/nathidaum/spots-backend/internal/spots/repository"
	userserrors "github.com/nathidaum/spots-backend/internal/users/errors"
	usersrepository "github.com/nathidaum/spots-backend/internal/users/repository"
	"github.com/nathidaum/spots-backend/pkg/config"
	apperrors "github.com/nathidaum/spots-backend/pkg/errors"
	"github.com/nathidaum/spots-backend/pkg/kafka"
	"github.com/nathidaum/spots-backend/pkg/model"
	"github.com/nathidaum/spots-backend/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, callerID string, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, callerID, id string) (*model.Booking, error)
	GetAllForUser(ctx context.Context, userID string) ([]*model.Booking, error)
	Cancel(ctx context.Context, callerID, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	spotRepo  spotsrepository.SpotRepository
	userRepo  usersrepository.UserRepository
	validator *validator.BookingValidator
	producer  *kafka.Producer
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	spotRepo spotsrepository.SpotRepository,
	userRepo usersrepository.UserRepository,
	validator *validator.BookingValidator,
	producer *kafka.Producer,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		spotRepo:  spotRepo,
		userRepo:  userRepo,
		validator: validator,
		producer:  producer,
		cfg:       cfg,
	}
}

// Create books a spot for a date interval. The interval is normalized to
// whole UTC days and compared against the spot's blocked dates with
// closed-interval semantics, so two bookings sharing a boundary day conflict.
// A per-spot advisory lock plus a re-read inside the transaction keeps two
// concurrent requests from both committing.
func (s *bookingService) Create(ctx context.Context, callerID string, req *model.BookingRequest) (*model.Booking, error) {
	req.SpotID = sanitizer.TrimAndNormalize(req.SpotID)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	spot, err := s.spotRepo.FindByID(ctx, req.SpotID)
	if err != nil {
		return nil, translateSpotLookup(err, req.SpotID)
	}

	if spot.Status != model.SpotStatusActive {
		return nil, apperrors.Conflict("Spot is not open for bookings")
	}

	booking := s.buildBooking(callerID, spot, req)
	if booking.Status == model.BookingStatusBlocked && !booking.CreatedByHost {
		return nil, apperrors.Forbidden("Only the spot owner can block dates")
	}

	lockOwner, err := s.acquireSpotLock(ctx, spot.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, spot.ID, lockOwner); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "spot_id", spot.ID, "error", releaseErr)
		}
	}()

	interval := booking.Interval()
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// Re-read under the lock: the snapshot loaded before the lock may
		// predate a concurrent writer's commit.
		current, err := s.spotRepo.FindByID(sessCtx, spot.ID)
		if err != nil {
			return translateSpotLookup(err, spot.ID)
		}

		for _, blocked := range current.BlockedDates {
			if interval.Overlaps(blocked.Normalize()) {
				return apperrors.Conflict(fmt.Sprintf(
					"Requested dates overlap an existing booking (%s - %s)",
					blocked.StartDate.Format(time.DateOnly),
					blocked.EndDate.Format(time.DateOnly),
				)).WithDetails(map[string]any{
					"reason":    "dates_unavailable",
					"startDate": blocked.StartDate.Format(time.DateOnly),
					"endDate":   blocked.EndDate.Format(time.DateOnly),
				})
			}
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		if err := s.spotRepo.PushBookingRef(sessCtx, spot.ID, interval, booking.ID); err != nil {
			return apperrors.Internal("Failed to block spot dates", err)
		}
		if err := s.userRepo.PushBooking(sessCtx, booking.UserID, booking.ID); err != nil {
			return apperrors.Internal("Failed to link booking to user", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "spot_id", spot.ID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"spot_id", booking.SpotID,
		"user_id", booking.UserID,
		"start_date", booking.StartDate,
		"end_date", booking.EndDate,
	)
	s.publishEvent(ctx, EventBookingCreated, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, callerID, id string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, callerID, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

func (s *bookingService) GetAllForUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	bookings, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	return bookings, nil
}

// Cancel marks the booking canceled and releases its interval on the spot.
// The booking document stays behind as history; a second cancel reports not
// found because no active booking with that id remains.
func (s *bookingService) Cancel(ctx context.Context, callerID, id string) error {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return err
	}

	if !booking.Active() {
		return apperrors.NotFoundWithID("Booking", id)
	}

	if err := s.authorize(ctx, callerID, booking); err != nil {
		return err
	}

	interval := booking.Interval()
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.UpdateStatus(sessCtx, id, model.BookingStatusCanceled); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to cancel booking", err)
		}
		if err := s.spotRepo.PullBookingRef(sessCtx, booking.SpotID, interval, booking.ID); err != nil {
			return apperrors.Internal("Failed to release spot dates", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking canceled successfully", "id", id, "spot_id", booking.SpotID)
	booking.Status = model.BookingStatusCanceled
	s.publishEvent(ctx, EventBookingCanceled, booking)
	return nil
}

// --- Helpers ---

func (s *bookingService) buildBooking(callerID string, spot *model.Spot, req *model.BookingRequest) *model.Booking {
	interval := model.DateRange{StartDate: req.StartDate, EndDate: req.EndDate}.Normalize()

	status := req.Status
	if status == "" {
		status = model.BookingStatusPending
	}

	return &model.Booking{
		UserID:        callerID,
		SpotID:        spot.ID,
		StartDate:     interval.StartDate,
		EndDate:       interval.EndDate,
		Status:        status,
		CreatedByHost: callerID == spot.CreatedBy,
	}
}

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	if booking == nil {
		return nil, apperrors.NotFoundWithID("Booking", id)
	}

	return booking, nil
}

// authorize allows the booking's creator, the owner of the booked spot, and
// admins. Roles are looked up only after the ownership rules fail.
func (s *bookingService) authorize(ctx context.Context, callerID string, booking *model.Booking) error {
	spot, err := s.spotRepo.FindByID(ctx, booking.SpotID)
	spotOwner := ""
	if err == nil {
		spotOwner = spot.CreatedBy
	}

	if authz.CanAccessBooking(booking, spotOwner, callerID) {
		return nil
	}

	caller, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return apperrors.Forbidden("You do not have access to this booking")
		}
		return apperrors.Internal("Failed to check caller permissions", err)
	}
	if authz.IsAdmin(caller) {
		return nil
	}

	return apperrors.Forbidden("You do not have access to this booking")
}

func (s *bookingService) acquireSpotLock(ctx context.Context, spotID string) (string, error) {
	lock := &model.BookingLock{
		ID:    spotID,
		Owner: uuid.NewString(),
	}

	if err := s.lockRepo.Acquire(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This spot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lock.Owner, nil
}

func translateSpotLookup(err error, spotID string) error {
	switch {
	case errors.Is(err, spotserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Spot", spotID)
	case errors.Is(err, spotserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid spot ID format")
	default:
		return apperrors.Internal("Failed to retrieve spot", err)
	}
}
