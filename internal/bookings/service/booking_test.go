package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "github.com/nathidaum/spots-backend/internal/bookings/errors"
	"github.com/nathidaum/spots-backend/internal/bookings/validator"
	spotserrors "github.com/nathidaum/spots-backend/internal/spots/errors"
	userserrors "github.com/nathidaum/spots-backend/internal/users/errors"
	"github.com/nathidaum/spots-backend/pkg/config"
	apperrors "github.com/nathidaum/spots-backend/pkg/errors"
	mongotx "github.com/nathidaum/spots-backend/pkg/db/mongo"
	"github.com/nathidaum/spots-backend/pkg/logger"
	"github.com/nathidaum/spots-backend/pkg/model"
)

const (
	spotID    = "507f1f77bcf86cd799439011"
	guestID   = "507f1f77bcf86cd799439012"
	hostID    = "507f1f77bcf86cd799439013"
	bookingID = "507f1f77bcf86cd799439014"
	adminID   = "507f1f77bcf86cd799439015"
	strangerID = "507f1f77bcf86cd799439016"
)

// --- Mocks ---

type mockBookingRepo struct {
	CreateFunc            func(ctx context.Context, booking *model.Booking) error
	FindByIDFunc          func(ctx context.Context, id string) (*model.Booking, error)
	FindByUserFunc        func(ctx context.Context, userID string) ([]*model.Booking, error)
	FindActiveByUserFunc  func(ctx context.Context, userID string) ([]*model.Booking, error)
	FindBySpotFunc        func(ctx context.Context, spotID string) ([]*model.Booking, error)
	UpdateStatusFunc      func(ctx context.Context, id string, status string) error
	CountActiveBySpotFunc func(ctx context.Context, spotID, excludeUserID string) (int64, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, booking)
	}
	booking.ID = bookingID
	return nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepo) FindByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, userID)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepo) FindActiveByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	if m.FindActiveByUserFunc != nil {
		return m.FindActiveByUserFunc(ctx, userID)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepo) FindBySpot(ctx context.Context, spotID string) ([]*model.Booking, error) {
	if m.FindBySpotFunc != nil {
		return m.FindBySpotFunc(ctx, spotID)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockBookingRepo) CountActiveBySpot(ctx context.Context, spotID, excludeUserID string) (int64, error) {
	if m.CountActiveBySpotFunc != nil {
		return m.CountActiveBySpotFunc(ctx, spotID, excludeUserID)
	}
	return 0, nil
}

func (m *mockBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepo struct {
	AcquireFunc func(ctx context.Context, lock *model.BookingLock) error
	ReleaseFunc func(ctx context.Context, lockID, owner string) error
	released    []string
}

func (m *mockLockRepo) Acquire(ctx context.Context, lock *model.BookingLock) error {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, lock)
	}
	return nil
}

func (m *mockLockRepo) Release(ctx context.Context, lockID, owner string) error {
	m.released = append(m.released, lockID)
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, lockID, owner)
	}
	return nil
}

type mockSpotRepo struct {
	FindByIDFunc       func(ctx context.Context, id string) (*model.Spot, error)
	PushBookingRefFunc func(ctx context.Context, spotID string, interval model.DateRange, bookingID string) error
	PullBookingRefFunc func(ctx context.Context, spotID string, interval model.DateRange, bookingID string) error
}

func (m *mockSpotRepo) Create(ctx context.Context, spot *model.Spot) error { return nil }

func (m *mockSpotRepo) FindByID(ctx context.Context, id string) (*model.Spot, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, spotserrors.ErrNotFound
}

func (m *mockSpotRepo) FindByIDWithRefs(ctx context.Context, id string) (*model.SpotDetails, error) {
	return nil, spotserrors.ErrNotFound
}

func (m *mockSpotRepo) FindAll(ctx context.Context, filter model.SpotFilter, limit int, offset int64) ([]*model.Spot, error) {
	return []*model.Spot{}, nil
}

func (m *mockSpotRepo) Count(ctx context.Context, filter model.SpotFilter) (int64, error) {
	return 0, nil
}

func (m *mockSpotRepo) Update(ctx context.Context, id string, spot *model.Spot) error { return nil }

func (m *mockSpotRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockSpotRepo) PushBookingRef(ctx context.Context, spotID string, interval model.DateRange, bookingID string) error {
	if m.PushBookingRefFunc != nil {
		return m.PushBookingRefFunc(ctx, spotID, interval, bookingID)
	}
	return nil
}

func (m *mockSpotRepo) PullBookingRef(ctx context.Context, spotID string, interval model.DateRange, bookingID string) error {
	if m.PullBookingRefFunc != nil {
		return m.PullBookingRefFunc(ctx, spotID, interval, bookingID)
	}
	return nil
}

func (m *mockSpotRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockUserRepo struct {
	FindByIDFunc    func(ctx context.Context, id string) (*model.User, error)
	PushBookingFunc func(ctx context.Context, userID, bookingID string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockUserRepo) PushCreatedSpot(ctx context.Context, userID, spotID string) error { return nil }

func (m *mockUserRepo) PullCreatedSpot(ctx context.Context, userID, spotID string) error { return nil }

func (m *mockUserRepo) PushBooking(ctx context.Context, userID, bookingID string) error {
	if m.PushBookingFunc != nil {
		return m.PushBookingFunc(ctx, userID, bookingID)
	}
	return nil
}

func (m *mockUserRepo) AddFavorite(ctx context.Context, userID, spotID string) error { return nil }

func (m *mockUserRepo) RemoveFavorite(ctx context.Context, userID, spotID string) error { return nil }

func (m *mockUserRepo) PullSpotFromAllFavorites(ctx context.Context, spotID string) error { return nil }

func (m *mockUserRepo) FindFavoriteSpots(ctx context.Context, userID string) ([]*model.Spot, error) {
	return []*model.Spot{}, nil
}

func (m *mockUserRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

// --- Fixtures ---

func day(d int) time.Time {
	return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		Log:            logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
		BookingLockTTL: 10 * time.Second,
	}
}

func activeSpot(blocked ...model.DateRange) *model.Spot {
	return &model.Spot{
		ID:           spotID,
		Title:        "Corner desk",
		Status:       model.SpotStatusActive,
		CreatedBy:    hostID,
		BlockedDates: blocked,
	}
}

type testEnv struct {
	bookings *mockBookingRepo
	locks    *mockLockRepo
	spots    *mockSpotRepo
	users    *mockUserRepo
	service  BookingService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		bookings: &mockBookingRepo{},
		locks:    &mockLockRepo{},
		spots:    &mockSpotRepo{},
		users:    &mockUserRepo{},
	}
	env.service = NewBookingService(
		env.bookings,
		env.locks,
		env.spots,
		env.users,
		validator.NewBookingValidator(logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})),
		nil,
		testConfig(),
	)
	return env
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("expected %s, got %s (%v)", code, appErr.Code, err)
	}
}

// --- Create ---

func TestCreateSucceeds(t *testing.T) {
	env := newTestEnv()
	spot := activeSpot()
	env.spots.FindByIDFunc = func(ctx context.Context, id string) (*model.Spot, error) {
		return spot, nil
	}

	var pushedInterval model.DateRange
	env.spots.PushBookingRefFunc = func(ctx context.Context, id string, interval model.DateRange, bID string) error {
		pushedInterval = interval
		return nil
	}
	var linkedUser string
	env.users.PushBookingFunc = func(ctx context.Context, userID, bID string) error {
		linkedUser = userID
		return nil
	}

	booking, err := env.service.Create(context.Background(), guestID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(12),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if booking.ID != bookingID {
		t.Errorf("booking.ID = %q", booking.ID)
	}
	if booking.Status != model.BookingStatusPending {
		t.Errorf("default status = %q, want pending", booking.Status)
	}
	if booking.CreatedByHost {
		t.Error("guest booking should not be marked as host-created")
	}
	if !pushedInterval.StartDate.Equal(day(10)) || !pushedInterval.EndDate.Equal(day(12)) {
		t.Errorf("pushed interval = %v", pushedInterval)
	}
	if linkedUser != guestID {
		t.Errorf("booking linked to %q, want %q", linkedUser, guestID)
	}
	if len(env.locks.released) != 1 || env.locks.released[0] != spotID {
		t.Errorf("lock not released: %v", env.locks.released)
	}
}

func TestCreateNormalizesDates(t *testing.T) {
	env := newTestEnv()
	env.spots.FindByIDFunc = func(ctx context.Context, id string) (*model.Spot, error) {
		return activeSpot(), nil
	}

	booking, err := env.service.Create(context.Background(), guestID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: time.Date(2024, time.May, 10, 14, 30, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.May, 12, 9, 15, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !booking.StartDate.Equal(day(10)) || !booking.EndDate.Equal(day(12)) {
		t.Errorf("dates not normalized: %v - %v", booking.StartDate, booking.EndDate)
	}
}

func TestCreateBoundaryDayConflicts(t *testing.T) {
	env := newTestEnv()
	env.spots.FindByIDFunc = func(ctx context.Context, id string) (*model.Spot, error) {
		return activeSpot(model.DateRange{StartDate: day(12), EndDate: day(15)}), nil
	}

	created := false
	env.bookings.CreateFunc = func(ctx context.Context, booking *model.Booking) error {
		created = true
		return nil
	}

	_, err := env.service.Create(context.Background(), guestID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(12),
	})
	assertAppCode(t, err, apperrors.CodeConflict)
	if created {
		t.Error("booking must not be created on conflict")
	}
	if len(env.locks.released) != 1 {
		t.Error("lock must be released after conflict")
	}
}

func TestCreateAdjacentDaySucceeds(t *testing.T) {
	env := newTestEnv()
	env.spots.FindByIDFunc = func(ctx context.Context, id string) (*model.Spot, error) {
		return activeSpot(model.DateRange{StartDate: day(12), EndDate: day(15)}), nil
	}

	_, err := env.service.Create(context.Background(), guestID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(11),
	})
	if err != nil {
		t.Fatalf("adjacent booking rejected: %v", err)
	}
}

func TestCreateEndBeforeStart(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.Create(context.Background(), guestID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(12),
		EndDate:   day(10),
	})
	assertAppCode(t, err, apperrors.CodeValidation)
}

func TestCreateSpotNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.Create(context.Background(), guestID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(12),
	})
	assertAppCode(t, err, apperrors.CodeNotFound)
}

func TestCreateInactiveSpot(t *testing.T) {
	env := newTestEnv()
	env.spots.FindByIDFunc = func(ctx context.Context, id string) (*model.Spot, error) {
		spot := activeSpot()
		spot.Status = model.SpotStatusInactive
		return spot, nil
	}

	_, err := env.service.Create(context.Background(), guestID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(12),
	})
	assertAppCode(t, err, apperrors.CodeConflict)
}

func TestCreateLockCollision(t *testing.T) {
	env := newTestEnv()
	env.spots.FindByIDFunc = func(ctx context.Context, id string) (*model.Spot, error) {
		return activeSpot(), nil
	}
	env.locks.AcquireFunc = func(ctx context.Context, lock *model.BookingLock) error {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}

	created := false
	env.bookings.CreateFunc = func(ctx context.Context, booking *model.Booking) error {
		created = true
		return nil
	}

	_, err := env.service.Create(context.Background(), guestID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(12),
	})
	assertAppCode(t, err, apperrors.CodeConflict)
	if created {
		t.Error("booking must not be created while another writer holds the lock")
	}
}

func TestCreateBlockedStatus(t *testing.T) {
	env := newTestEnv()
	env.spots.FindByIDFunc = func(ctx context.Context, id string) (*model.Spot, error) {
		return activeSpot(), nil
	}

	// Host blocks own spot.
	booking, err := env.service.Create(context.Background(), hostID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(12),
		Status:    model.BookingStatusBlocked,
	})
	if err != nil {
		t.Fatalf("host block rejected: %v", err)
	}
	if !booking.CreatedByHost {
		t.Error("host booking should be marked as host-created")
	}

	// Guest cannot block.
	_, err = env.service.Create(context.Background(), guestID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(20),
		EndDate:   day(22),
		Status:    model.BookingStatusBlocked,
	})
	assertAppCode(t, err, apperrors.CodeForbidden)
}

// --- GetByID / authorization ---

func existingBooking(status string) *model.Booking {
	return &model.Booking{
		ID:        bookingID,
		UserID:    guestID,
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(12),
		Status:    status,
	}
}

func setupAuthEnv(env *testEnv) {
	env.bookings.FindByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return existingBooking(model.BookingStatusConfirmed), nil
	}
	env.spots.FindByIDFunc = func(ctx context.Context, id string) (*model.Spot, error) {
		return activeSpot(), nil
	}
	env.users.FindByIDFunc = func(ctx context.Context, id string) (*model.User, error) {
		if id == adminID {
			return &model.User{ID: adminID, Roles: []string{model.RoleAdmin}}, nil
		}
		return &model.User{ID: id, Roles: []string{model.RoleGuest}}, nil
	}
}

func TestGetByIDAccess(t *testing.T) {
	tests := []struct {
		name     string
		callerID string
		wantCode string
	}{
		{"booking creator", guestID, ""},
		{"spot owner", hostID, ""},
		{"admin", adminID, ""},
		{"stranger", strangerID, apperrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			setupAuthEnv(env)

			_, err := env.service.GetByID(context.Background(), tt.callerID, bookingID)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("expected access, got %v", err)
				}
				return
			}
			assertAppCode(t, err, tt.wantCode)
		})
	}
}

func TestGetByIDNotFoundBeforeAuthz(t *testing.T) {
	env := newTestEnv()
	// No booking exists; even a stranger sees 404, not 403.
	_, err := env.service.GetByID(context.Background(), strangerID, bookingID)
	assertAppCode(t, err, apperrors.CodeNotFound)
}

func TestGetByIDNilBookingWithoutError(t *testing.T) {
	env := newTestEnv()
	// A repository returning no booking and no error still reads as not found.
	env.bookings.FindByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return nil, nil
	}
	_, err := env.service.GetByID(context.Background(), guestID, bookingID)
	assertAppCode(t, err, apperrors.CodeNotFound)
}

// --- Cancel ---

func TestCancelReleasesInterval(t *testing.T) {
	env := newTestEnv()
	setupAuthEnv(env)

	var newStatus string
	env.bookings.UpdateStatusFunc = func(ctx context.Context, id string, status string) error {
		newStatus = status
		return nil
	}
	var pulled model.DateRange
	env.spots.PullBookingRefFunc = func(ctx context.Context, id string, interval model.DateRange, bID string) error {
		pulled = interval
		return nil
	}

	if err := env.service.Cancel(context.Background(), guestID, bookingID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if newStatus != model.BookingStatusCanceled {
		t.Errorf("status = %q, want canceled", newStatus)
	}
	if !pulled.StartDate.Equal(day(10)) || !pulled.EndDate.Equal(day(12)) {
		t.Errorf("pulled interval = %v", pulled)
	}
}

func TestCancelTwiceReportsNotFound(t *testing.T) {
	env := newTestEnv()
	setupAuthEnv(env)
	env.bookings.FindByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return existingBooking(model.BookingStatusCanceled), nil
	}

	err := env.service.Cancel(context.Background(), guestID, bookingID)
	assertAppCode(t, err, apperrors.CodeNotFound)
}

func TestCancelForbiddenForStranger(t *testing.T) {
	env := newTestEnv()
	setupAuthEnv(env)

	err := env.service.Cancel(context.Background(), strangerID, bookingID)
	assertAppCode(t, err, apperrors.CodeForbidden)
}

func TestCancelBySpotOwner(t *testing.T) {
	env := newTestEnv()
	setupAuthEnv(env)

	if err := env.service.Cancel(context.Background(), hostID, bookingID); err != nil {
		t.Errorf("spot owner cancel rejected: %v", err)
	}
}

// --- Rebooking after cancel ---

func TestRebookAfterCancelSucceeds(t *testing.T) {
	env := newTestEnv()
	spot := activeSpot(model.DateRange{StartDate: day(10), EndDate: day(12)})
	env.spots.FindByIDFunc = func(ctx context.Context, id string) (*model.Spot, error) {
		return spot, nil
	}
	env.bookings.FindByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return existingBooking(model.BookingStatusConfirmed), nil
	}
	env.spots.PullBookingRefFunc = func(ctx context.Context, id string, interval model.DateRange, bID string) error {
		spot.BlockedDates = nil
		return nil
	}
	env.users.FindByIDFunc = func(ctx context.Context, id string) (*model.User, error) {
		return &model.User{ID: id, Roles: []string{model.RoleGuest}}, nil
	}

	// Occupied: the same interval conflicts.
	_, err := env.service.Create(context.Background(), strangerID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(12),
	})
	assertAppCode(t, err, apperrors.CodeConflict)

	if err := env.service.Cancel(context.Background(), guestID, bookingID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// Released: the interval is bookable again.
	if _, err := env.service.Create(context.Background(), strangerID, &model.BookingRequest{
		SpotID:    spotID,
		StartDate: day(10),
		EndDate:   day(12),
	}); err != nil {
		t.Fatalf("rebooking after cancel failed: %v", err)
	}
}

// --- GetAllForUser ---

func TestGetAllForUser(t *testing.T) {
	env := newTestEnv()
	env.bookings.FindByUserFunc = func(ctx context.Context, userID string) ([]*model.Booking, error) {
		if userID != guestID {
			t.Errorf("unexpected userID %q", userID)
		}
		return []*model.Booking{existingBooking(model.BookingStatusConfirmed)}, nil
	}

	bookings, err := env.service.GetAllForUser(context.Background(), guestID)
	if err != nil {
		t.Fatalf("GetAllForUser failed: %v", err)
	}
	if len(bookings) != 1 {
		t.Errorf("got %d bookings, want 1", len(bookings))
	}
}

func TestGetAllForUserEmptyID(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.GetAllForUser(context.Background(), "")
	assertAppCode(t, err, apperrors.CodeInvalidInput)
}
