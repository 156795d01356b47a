package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nathidaum/spots-backend/internal/authz"
	bookingsrepository "github.com/nathidaum/spots-backend/internal/bookings/repository"
	spotserrors "github.com/nathidaum/spots-backend/internal/spots/errors"
	"github.com/nathidaum/spots-backend/internal/spots/repository"
	"github.com/nathidaum/spots-backend/internal/spots/validator"
	userserrors "github.com/nathidaum/spots-backend/internal/users/errors"
	usersrepository "github.com/nathidaum/spots-backend/internal/users/repository"
	"github.com/nathidaum/spots-backend/pkg/config"
	apperrors "github.com/nathidaum/spots-backend/pkg/errors"
	"github.com/nathidaum/spots-backend/pkg/model"
	"github.com/nathidaum/spots-backend/pkg/sanitizer"
)

type SpotService interface {
	Create(ctx context.Context, callerID string, spot *model.Spot) error
	GetAll(ctx context.Context, filter model.SpotFilter, limit int, offset int64) ([]*model.Spot, int64, error)
	GetByID(ctx context.Context, id string) (*model.SpotDetails, error)
	Update(ctx context.Context, callerID, id string, updates *model.SpotUpdate) (*model.Spot, error)
	Delete(ctx context.Context, callerID, id string) error
}

type spotService struct {
	repo        repository.SpotRepository
	userRepo    usersrepository.UserRepository
	bookingRepo bookingsrepository.BookingRepository
	validator   *validator.SpotValidator
	cfg         *config.Config
}

func NewSpotService(
	repo repository.SpotRepository,
	userRepo usersrepository.UserRepository,
	bookingRepo bookingsrepository.BookingRepository,
	validator *validator.SpotValidator,
	cfg *config.Config,
) SpotService {
	return &spotService{
		repo:        repo,
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		validator:   validator,
		cfg:         cfg,
	}
}

func (s *spotService) Create(ctx context.Context, callerID string, spot *model.Spot) error {
	spot.CreatedBy = callerID
	if spot.Status == "" {
		spot.Status = model.SpotStatusActive
	}
	if spot.BlockedDates == nil {
		spot.BlockedDates = []model.DateRange{}
	}
	if spot.Bookings == nil {
		spot.Bookings = []string{}
	}
	s.sanitize(spot)
	if err := s.validate(spot); err != nil {
		return err
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, spot); err != nil {
			return apperrors.Internal("Failed to create spot", err)
		}
		if err := s.userRepo.PushCreatedSpot(sessCtx, callerID, spot.ID); err != nil {
			return apperrors.Internal("Failed to link spot to creator", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create spot", "created_by", callerID, "error", err)
		return err
	}

	s.cfg.Log.Info("Spot created successfully", "id", spot.ID, "type", spot.Type, "city", spot.Location.City)
	return nil
}

func (s *spotService) GetAll(ctx context.Context, filter model.SpotFilter, limit int, offset int64) ([]*model.Spot, int64, error) {
	filter.Type = sanitizer.TrimAndNormalize(filter.Type)
	filter.City = sanitizer.NormalizeCity(filter.City)

	var count int64
	var spots []*model.Spot
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count spots", "error", errCount)
			errCount = apperrors.Internal("Failed to count spots", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		spots, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list spots", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve spots", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return spots, count, nil
}

func (s *spotService) GetByID(ctx context.Context, id string) (*model.SpotDetails, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Spot ID cannot be empty")
	}

	details, err := s.repo.FindByIDWithRefs(ctx, id)
	if err != nil {
		return nil, translateLookup(err, id)
	}

	return details, nil
}

func (s *spotService) Update(ctx context.Context, callerID, id string, updates *model.SpotUpdate) (*model.Spot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Spot ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookup(err, id)
	}

	if err := s.authorize(ctx, callerID, existing); err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Spot update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeSpotUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, spotserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Spot", id)
		}
		s.cfg.Log.Error("Failed to update spot", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update spot", err)
	}

	s.cfg.Log.Info("Spot updated successfully", "id", id)
	return merged, nil
}

// Delete removes a spot once no active booking occupies it. Canceled bookings
// do not block deletion.
func (s *spotService) Delete(ctx context.Context, callerID, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Spot ID cannot be empty")
	}

	spot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translateLookup(err, id)
	}

	if err := s.authorize(ctx, callerID, spot); err != nil {
		return err
	}

	count, err := s.bookingRepo.CountActiveBySpot(ctx, id, "")
	if err != nil {
		return apperrors.Internal("Failed to check spot bookings", err)
	}
	if count > 0 {
		return apperrors.Conflict("Cannot delete a spot with active bookings")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, spotserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Spot", id)
			}
			return apperrors.Internal("Failed to delete spot", err)
		}
		if err := s.userRepo.PullCreatedSpot(sessCtx, spot.CreatedBy, id); err != nil {
			if !errors.Is(err, userserrors.ErrNotFound) {
				return apperrors.Internal("Failed to unlink spot from creator", err)
			}
		}
		if err := s.userRepo.PullSpotFromAllFavorites(sessCtx, id); err != nil {
			return apperrors.Internal("Failed to clean up favorites", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete spot", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Spot deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *spotService) sanitize(spot *model.Spot) {
	spot.Title = sanitizer.TrimAndNormalize(spot.Title)
	spot.Description = sanitizer.TrimAndNormalize(spot.Description)
	spot.Location.City = sanitizer.NormalizeCity(spot.Location.City)
	spot.Location.Address = sanitizer.TrimAndNormalize(spot.Location.Address)
	spot.Amenities = sanitizer.SanitizeSlice(spot.Amenities, sanitizer.TrimAndNormalize)
	spot.Images = sanitizer.SanitizeSlice(spot.Images, sanitizer.SanitizeURL)
}

func (s *spotService) validate(spot *model.Spot) error {
	if err := s.validator.Validate(spot); err != nil {
		s.cfg.Log.Warn("Spot validation failed", "error", err)
		return apperrors.Validation("Spot validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// authorize allows the spot's creator and admins.
func (s *spotService) authorize(ctx context.Context, callerID string, spot *model.Spot) error {
	if authz.CanModifySpot(spot, callerID) {
		return nil
	}

	caller, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return apperrors.Forbidden("You can only modify your own spots")
		}
		return apperrors.Internal("Failed to check caller permissions", err)
	}
	if authz.IsAdmin(caller) {
		return nil
	}

	return apperrors.Forbidden("You can only modify your own spots")
}

func (s *spotService) mergeSpotUpdates(existing *model.Spot, updates *model.SpotUpdate) *model.Spot {
	merged := *existing

	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.Type != "" {
		merged.Type = updates.Type
	}
	if updates.DeskCount != nil {
		merged.DeskCount = *updates.DeskCount
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}
	if updates.Amenities != nil {
		merged.Amenities = *updates.Amenities
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.Images != nil {
		merged.Images = *updates.Images
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}

	return &merged
}

func translateLookup(err error, spotID string) error {
	switch {
	case errors.Is(err, spotserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Spot", spotID)
	case errors.Is(err, spotserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid spot ID format")
	default:
		return apperrors.Internal("Failed to retrieve spot", err)
	}
}
