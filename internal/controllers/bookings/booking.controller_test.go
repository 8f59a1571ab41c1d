package bookingController

import (
	"context"
	"testing"

	"hostly/config"
	"hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/testutil"
	"hostly/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	controller *BookingController
	repos      repositories.Repository
	user       *models.UserProfile
	property   *models.Property
}

func newFixture(t *testing.T, autoClean bool) fixture {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	svc, err := services.New(db, config.Config{}, nil)
	require.NoError(t, err)
	repos := repositories.New(db)

	user := &models.UserProfile{BaseUUIDModel: models.BaseUUIDModel{ID: uuid.New()}}
	property := &models.Property{
		UserID:               user.ID,
		Name:                 "Harbor Flat",
		Currency:             "EUR",
		CleanerName:          "Sam",
		CleaningFee:          decimal.NewFromInt(60),
		AutoScheduleCleaning: autoClean,
		IsActive:             true,
	}
	require.NoError(t, repos.Property.Create(context.Background(), db.SQL, property))

	return fixture{
		controller: New(repos, svc, config.Config{}, db).(*BookingController),
		repos:      repos,
		user:       user,
		property:   property,
	}
}

func (f fixture) request(checkIn, checkOut string) *CreateBookingRequest {
	return &CreateBookingRequest{
		PropertyID:  f.property.ID,
		GuestName:   "Maria Lopez",
		GuestPhone:  "+1 (555) 010-4321",
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		TotalAmount: decimal.NewFromInt(300),
	}
}

func TestBookingController_Create(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	booking, err := f.controller.Create(ctx, f.user, f.request("2026-07-01", "2026-07-04"))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, models.BookingSourceManual, booking.Source)
	assert.Equal(t, models.PlatformDirect, booking.Platform)
	assert.Equal(t, "EUR", booking.Currency)
	assert.Equal(t, "4321", booking.PhoneLast4)
	assert.Equal(t, 3, booking.Nights())
	require.NotNil(t, booking.Property)

	cleanings, err := f.repos.Cleaning.List(ctx, f.controller.db.SQL, f.user.ID, repositories.CleaningFilter{})
	require.NoError(t, err)
	require.Len(t, cleanings, 1)
	assert.Equal(t, testutil.Date(2026, 7, 4), cleanings[0].ScheduledDate.UTC())
	assert.Equal(t, "Sam", cleanings[0].CleanerName)
	assert.True(t, cleanings[0].Cost.Equal(decimal.NewFromInt(60)))

	// back-to-back stays share the turnover day
	_, err = f.controller.Create(ctx, f.user, f.request("2026-07-04", "2026-07-06"))
	require.NoError(t, err)

	_, err = f.controller.Create(ctx, f.user, f.request("2026-07-03", "2026-07-05"))
	assert.ErrorIs(t, err, ErrBookingOverlap)
	assert.ErrorIs(t, err, types.ErrConflict)

	pending := f.request("2026-07-03", "2026-07-05")
	pending.Status = models.BookingStatusPending
	_, err = f.controller.Create(ctx, f.user, pending)
	assert.NoError(t, err)
}

func TestBookingController_CreateValidation(t *testing.T) {
	f := newFixture(t, false)

	otherProperty := f.request("2026-07-01", "2026-07-02")
	otherProperty.PropertyID = uuid.New()

	tests := []struct {
		name    string
		request *CreateBookingRequest
		wantErr error
	}{
		{name: "missing guest", request: &CreateBookingRequest{PropertyID: f.property.ID, CheckIn: "2026-07-01", CheckOut: "2026-07-02"}, wantErr: types.ErrValidation},
		{name: "missing dates", request: &CreateBookingRequest{PropertyID: f.property.ID, GuestName: "A"}, wantErr: types.ErrValidation},
		{name: "checkout before checkin", request: f.request("2026-07-05", "2026-07-01"), wantErr: types.ErrValidation},
		{name: "same day", request: f.request("2026-07-05", "2026-07-05"), wantErr: types.ErrValidation},
		{name: "unknown property", request: otherProperty, wantErr: ErrPropertyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.Create(context.Background(), f.user, tt.request)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBookingController_UpdateAndDelete(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.controller.Create(ctx, f.user, f.request("2026-07-01", "2026-07-04"))
	require.NoError(t, err)
	second, err := f.controller.Create(ctx, f.user, f.request("2026-07-10", "2026-07-12"))
	require.NoError(t, err)

	checkOut := "2026-07-11"
	_, err = f.controller.Update(ctx, f.user, first.ID, &UpdateBookingRequest{CheckOut: &checkOut})
	assert.ErrorIs(t, err, ErrBookingOverlap)

	cancelled := models.BookingStatusCancelled
	updated, err := f.controller.Update(ctx, f.user, first.ID, &UpdateBookingRequest{
		CheckOut: &checkOut,
		Status:   &cancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, updated.Status)
	assert.Equal(t, 10, updated.Nights())

	early := "2026-06-01"
	_, err = f.controller.Update(ctx, f.user, second.ID, &UpdateBookingRequest{CheckOut: &early})
	assert.ErrorIs(t, err, types.ErrValidation)

	require.NoError(t, f.controller.Delete(ctx, f.user, second.ID))
	assert.ErrorIs(t, f.controller.Delete(ctx, f.user, second.ID), ErrBookingNotFound)
}

func (f fixture) cleaningFor(t *testing.T, bookingID uuid.UUID) models.Cleaning {
	t.Helper()

	var cleaning models.Cleaning
	require.NoError(t, f.controller.db.SQL.Where("booking_id = ?", bookingID).First(&cleaning).Error)
	return cleaning
}

func TestBookingController_CleaningsFollowBooking(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	moved, err := f.controller.Create(ctx, f.user, f.request("2026-07-01", "2026-07-04"))
	require.NoError(t, err)
	cancelled, err := f.controller.Create(ctx, f.user, f.request("2026-07-10", "2026-07-12"))
	require.NoError(t, err)
	deleted, err := f.controller.Create(ctx, f.user, f.request("2026-07-20", "2026-07-22"))
	require.NoError(t, err)
	done, err := f.controller.Create(ctx, f.user, f.request("2026-07-24", "2026-07-26"))
	require.NoError(t, err)

	checkOut := "2026-07-05"
	_, err = f.controller.Update(ctx, f.user, moved.ID, &UpdateBookingRequest{CheckOut: &checkOut})
	require.NoError(t, err)
	cleaning := f.cleaningFor(t, moved.ID)
	assert.Equal(t, testutil.Date(2026, 7, 5), cleaning.ScheduledDate.UTC())
	assert.Equal(t, models.CleaningStatusScheduled, cleaning.Status)

	status := models.BookingStatusCancelled
	_, err = f.controller.Update(ctx, f.user, cancelled.ID, &UpdateBookingRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.CleaningStatusCancelled, f.cleaningFor(t, cancelled.ID).Status)

	require.NoError(t, f.controller.Delete(ctx, f.user, deleted.ID))
	assert.Equal(t, models.CleaningStatusCancelled, f.cleaningFor(t, deleted.ID).Status)

	completed := f.cleaningFor(t, done.ID)
	require.NoError(t, f.repos.Cleaning.Update(ctx, f.controller.db.SQL, f.user.ID, completed.ID, map[string]any{
		"status": models.CleaningStatusCompleted,
	}))
	_, err = f.controller.Update(ctx, f.user, done.ID, &UpdateBookingRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.CleaningStatusCompleted, f.cleaningFor(t, done.ID).Status)

	upcoming, err := f.repos.Cleaning.List(ctx, f.controller.db.SQL, f.user.ID, repositories.CleaningFilter{
		Status: models.CleaningStatusScheduled,
	})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, moved.ID, *upcoming[0].BookingID)
}

func TestBookingController_List(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.controller.Create(ctx, f.user, f.request("2026-07-01", "2026-07-04"))
	require.NoError(t, err)
	_, err = f.controller.Create(ctx, f.user, f.request("2026-08-01", "2026-08-04"))
	require.NoError(t, err)

	response, err := f.controller.List(ctx, f.user, &ListBookingsRequest{From: "2026-07-03", To: "2026-07-31"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, response.Total)
	assert.Equal(t, repositories.DEFAULT_BOOKING_LIMIT, response.Limit)

	response, err = f.controller.List(ctx, f.user, &ListBookingsRequest{PropertyID: f.property.ID.String(), Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, response.Total)
	assert.Len(t, response.Bookings, 1)

	_, err = f.controller.List(ctx, f.user, &ListBookingsRequest{Status: "lost"})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = f.controller.List(ctx, f.user, &ListBookingsRequest{From: "2026-08-01", To: "2026-07-01"})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestLastDigits(t *testing.T) {
	assert.Equal(t, "4321", lastDigits("+1 (555) 010-4321", 4))
	assert.Equal(t, "", lastDigits("12", 4))
}
