package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/nathidaum/spots-backend/internal/authz"
	bookingsrepository "github.com/nathidaum/spots-backend/internal/bookings/repository"
	spotserrors "github.com/nathidaum/spots-backend/internal/spots/errors"
	spotsrepository "github.com/nathidaum/spots-backend/internal/spots/repository"
	userserrors "github.com/nathidaum/spots-backend/internal/users/errors"
	"github.com/nathidaum/spots-backend/internal/users/repository"
	"github.com/nathidaum/spots-backend/internal/users/validator"
	"github.com/nathidaum/spots-backend/pkg/config"
	apperrors "github.com/nathidaum/spots-backend/pkg/errors"
	"github.com/nathidaum/spots-backend/pkg/model"
	"github.com/nathidaum/spots-backend/pkg/sanitizer"
	"github.com/nathidaum/spots-backend/pkg/token"
)

type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	// ToggleFavorite flips the favorite state of a spot for the user and
	// reports the resulting state.
	ToggleFavorite(ctx context.Context, userID, spotID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]*model.Spot, error)
	Delete(ctx context.Context, callerID, id string) error
}

type userService struct {
	repo        repository.UserRepository
	spotRepo    spotsrepository.SpotRepository
	bookingRepo bookingsrepository.BookingRepository
	validator   *validator.UserValidator
	tokens      *token.Manager
	cfg         *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	spotRepo spotsrepository.SpotRepository,
	bookingRepo bookingsrepository.BookingRepository,
	validator *validator.UserValidator,
	tokens *token.Manager,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:        repo,
		spotRepo:    spotRepo,
		bookingRepo: bookingRepo,
		validator:   validator,
		tokens:      tokens,
		cfg:         cfg,
	}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	s.sanitizeRegister(req)
	if len(req.Roles) == 0 {
		req.Roles = []string{model.RoleGuest}
	}

	if err := s.validator.ValidateRegister(req); err != nil {
		s.cfg.Log.Warn("Registration validation failed", "error", err)
		return nil, apperrors.Validation("Registration validation failed", map[string]any{"error": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     string(hash),
		Roles:        req.Roles,
		Profile:      req.Profile,
		CreatedSpots: []string{},
		Bookings:     []string{},
		Favorites:    []string{},
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("A user with this email already exists")
		}
		s.cfg.Log.Error("Failed to create user", "email", user.Email, "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	authToken, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue auth token", err)
	}

	s.cfg.Log.Info("User registered successfully", "id", user.ID, "roles", user.Roles)
	return &model.AuthResponse{User: user, AuthToken: authToken, ExpiresAt: expiresAt}, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.ValidateLogin(req); err != nil {
		s.cfg.Log.Warn("Login validation failed", "error", err)
		return nil, apperrors.Validation("Login validation failed", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	authToken, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue auth token", err)
	}

	s.cfg.Log.Info("User logged in successfully", "id", user.ID)
	return &model.AuthResponse{User: user, AuthToken: authToken, ExpiresAt: expiresAt}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *userService) ToggleFavorite(ctx context.Context, userID, spotID string) (bool, error) {
	spotID = sanitizer.TrimAndNormalize(spotID)
	if err := s.validator.ValidateToggleFavorite(&model.ToggleFavoriteRequest{SpotID: spotID}); err != nil {
		s.cfg.Log.Warn("Favorite toggle validation failed", "error", err)
		return false, apperrors.Validation("Favorite toggle validation failed", map[string]any{"error": err.Error()})
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}

	if _, err := s.spotRepo.FindByID(ctx, spotID); err != nil {
		if errors.Is(err, spotserrors.ErrNotFound) {
			return false, apperrors.NotFoundWithID("Spot", spotID)
		}
		if errors.Is(err, spotserrors.ErrInvalidID) {
			return false, apperrors.InvalidInput("Invalid spot ID format")
		}
		return false, apperrors.Internal("Failed to retrieve spot", err)
	}

	favorited := true
	for _, fav := range user.Favorites {
		if fav == spotID {
			favorited = false
			break
		}
	}

	if favorited {
		err = s.repo.AddFavorite(ctx, userID, spotID)
	} else {
		err = s.repo.RemoveFavorite(ctx, userID, spotID)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to toggle favorite", "user_id", userID, "spot_id", spotID, "error", err)
		return false, apperrors.Internal("Failed to toggle favorite", err)
	}

	s.cfg.Log.Info("Favorite toggled", "user_id", userID, "spot_id", spotID, "favorited", favorited)
	return favorited, nil
}

func (s *userService) ListFavorites(ctx context.Context, userID string) ([]*model.Spot, error) {
	spots, err := s.repo.FindFavoriteSpots(ctx, userID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", userID)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve favorites", err)
	}

	return spots, nil
}

// Delete removes an account and everything it owns. Deletion is rejected
// outright while any other user holds an active booking on one of the user's
// spots; only when no such booking exists does the cascade run, so a failed
// delete leaves no partial state behind.
func (s *userService) Delete(ctx context.Context, callerID, id string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if callerID != id {
		caller, err := s.GetByID(ctx, callerID)
		if err != nil || !authz.IsAdmin(caller) {
			return apperrors.Forbidden("You can only delete your own account")
		}
	}

	for _, spotID := range user.CreatedSpots {
		count, err := s.bookingRepo.CountActiveBySpot(ctx, spotID, id)
		if err != nil {
			return apperrors.Internal("Failed to check spot bookings", err)
		}
		if count > 0 {
			return apperrors.Conflict("Cannot delete account while other users hold active bookings on your spots")
		}
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		active, err := s.bookingRepo.FindActiveByUser(sessCtx, id)
		if err != nil {
			return apperrors.Internal("Failed to list user bookings", err)
		}
		for _, booking := range active {
			if err := s.bookingRepo.UpdateStatus(sessCtx, booking.ID, model.BookingStatusCanceled); err != nil {
				return apperrors.Internal("Failed to cancel booking", err)
			}
			if err := s.spotRepo.PullBookingRef(sessCtx, booking.SpotID, booking.Interval(), booking.ID); err != nil {
				if !errors.Is(err, spotserrors.ErrNotFound) {
					return apperrors.Internal("Failed to release spot dates", err)
				}
			}
		}

		for _, spotID := range user.CreatedSpots {
			if err := s.spotRepo.Delete(sessCtx, spotID); err != nil {
				if errors.Is(err, spotserrors.ErrNotFound) {
					continue
				}
				return apperrors.Internal("Failed to delete spot", err)
			}
			if err := s.repo.PullSpotFromAllFavorites(sessCtx, spotID); err != nil {
				return apperrors.Internal("Failed to clean up favorites", err)
			}
		}

		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, userserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("User", id)
			}
			return apperrors.Internal("Failed to delete user", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete user", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("User deleted successfully", "id", id, "spots_removed", len(user.CreatedSpots))
	return nil
}

func (s *userService) sanitizeRegister(req *model.RegisterRequest) {
	req.FirstName = sanitizer.NormalizeName(req.FirstName)
	req.LastName = sanitizer.NormalizeName(req.LastName)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.Profile.Company = sanitizer.TrimAndNormalize(req.Profile.Company)
	req.Profile.Position = sanitizer.TrimAndNormalize(req.Profile.Position)
	req.Profile.PhoneNumber = sanitizer.SanitizePhone(req.Profile.PhoneNumber)
	req.Profile.LinkedInURL = sanitizer.SanitizeURL(req.Profile.LinkedInURL)
}
