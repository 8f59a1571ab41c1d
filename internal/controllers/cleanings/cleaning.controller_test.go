package cleaningController

import (
	"context"
	"testing"
	"time"

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
	controller *CleaningController
	repos      repositories.Repository
	user       *models.UserProfile
	property   *models.Property
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	svc, err := services.New(db, config.Config{}, nil)
	require.NoError(t, err)
	repos := repositories.New(db)

	user := &models.UserProfile{BaseUUIDModel: models.BaseUUIDModel{ID: uuid.New()}}
	property := &models.Property{
		UserID:       user.ID,
		Name:         "Dune House",
		CleanerName:  "Kim",
		CleanerEmail: "kim@example.com",
		CleaningFee:  decimal.NewFromInt(80),
		IsActive:     true,
	}
	require.NoError(t, repos.Property.Create(context.Background(), db.SQL, property))

	controller := New(repos, svc, config.Config{}, db).(*CleaningController)
	controller.now = func() time.Time { return time.Date(2026, 6, 2, 14, 0, 0, 0, time.UTC) }

	return fixture{controller: controller, repos: repos, user: user, property: property}
}

func TestCleaningController_CreateDefaults(t *testing.T) {
	f := newFixture(t)

	cleaning, err := f.controller.Create(context.Background(), f.user, &CreateCleaningRequest{
		PropertyID:    f.property.ID,
		ScheduledDate: "2026-06-05",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CleaningStatusScheduled, cleaning.Status)
	assert.Equal(t, "Kim", cleaning.CleanerName)
	assert.Equal(t, "kim@example.com", cleaning.CleanerEmail)
	assert.True(t, cleaning.Cost.Equal(decimal.NewFromInt(80)))
	assert.Nil(t, cleaning.CompletedAt)

	cost := decimal.NewFromInt(0)
	free, err := f.controller.Create(context.Background(), f.user, &CreateCleaningRequest{
		PropertyID:    f.property.ID,
		ScheduledDate: "2026-06-06",
		CleanerName:   "Lee",
		Cost:          &cost,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lee", free.CleanerName)
	assert.True(t, free.Cost.IsZero())
}

func TestCleaningController_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booking := &models.Booking{
		UserID:     f.user.ID,
		PropertyID: uuid.New(),
		GuestName:  "Other",
		CheckIn:    testutil.Date(2026, 6, 1),
		CheckOut:   testutil.Date(2026, 6, 3),
	}
	require.NoError(t, f.repos.Booking.Create(ctx, f.controller.db.SQL, booking))

	missingBooking := uuid.New()
	tests := []struct {
		name    string
		request *CreateCleaningRequest
		wantErr error
	}{
		{name: "missing date", request: &CreateCleaningRequest{PropertyID: f.property.ID}, wantErr: types.ErrValidation},
		{name: "bad status", request: &CreateCleaningRequest{PropertyID: f.property.ID, ScheduledDate: "2026-06-05", Status: "done"}, wantErr: types.ErrValidation},
		{name: "unknown property", request: &CreateCleaningRequest{PropertyID: uuid.New(), ScheduledDate: "2026-06-05"}, wantErr: ErrPropertyNotFound},
		{name: "unknown booking", request: &CreateCleaningRequest{PropertyID: f.property.ID, BookingID: &missingBooking, ScheduledDate: "2026-06-05"}, wantErr: ErrBookingNotFound},
		{name: "booking of another property", request: &CreateCleaningRequest{PropertyID: f.property.ID, BookingID: &booking.ID, ScheduledDate: "2026-06-05"}, wantErr: types.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.Create(ctx, f.user, tt.request)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCleaningController_Complete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cleaning, err := f.controller.Create(ctx, f.user, &CreateCleaningRequest{
		PropertyID:    f.property.ID,
		ScheduledDate: "2026-06-02",
	})
	require.NoError(t, err)

	completed, err := f.controller.Complete(ctx, f.user, cleaning.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CleaningStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	again, err := f.controller.Complete(ctx, f.user, cleaning.ID)
	require.NoError(t, err)
	assert.Equal(t, completed.CompletedAt.Unix(), again.CompletedAt.Unix())

	cancelled := models.CleaningStatusCancelled
	other, err := f.controller.Create(ctx, f.user, &CreateCleaningRequest{
		PropertyID:    f.property.ID,
		ScheduledDate: "2026-06-03",
	})
	require.NoError(t, err)
	_, err = f.controller.Update(ctx, f.user, other.ID, &UpdateCleaningRequest{Status: &cancelled})
	require.NoError(t, err)

	_, err = f.controller.Complete(ctx, f.user, other.ID)
	assert.ErrorIs(t, err, ErrCleaningCancelled)

	_, err = f.controller.Complete(ctx, f.user, uuid.New())
	assert.ErrorIs(t, err, ErrCleaningNotFound)
}

func TestCleaningController_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, day := range []string{"2026-06-05", "2026-06-15", "2026-07-01"} {
		_, err := f.controller.Create(ctx, f.user, &CreateCleaningRequest{PropertyID: f.property.ID, ScheduledDate: day})
		require.NoError(t, err)
	}

	june, err := f.controller.List(ctx, f.user, &ListCleaningsRequest{From: "2026-06-01", To: "2026-07-01"})
	require.NoError(t, err)
	require.Len(t, june, 2)

	require.NoError(t, f.controller.Delete(ctx, f.user, june[0].ID))
	assert.ErrorIs(t, f.controller.Delete(ctx, f.user, june[0].ID), ErrCleaningNotFound)

	all, err := f.controller.List(ctx, f.user, &ListCleaningsRequest{PropertyID: f.property.ID.String()})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
