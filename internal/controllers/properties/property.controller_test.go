package propertyController

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

func newTestController(t *testing.T) (*PropertyController, repositories.Repository) {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	cfg := config.Config{AppBaseURL: "https://app.example.com/"}
	svc, err := services.New(db, cfg, nil)
	require.NoError(t, err)

	repos := repositories.New(db)
	controller := New(repos, svc, cfg, db).(*PropertyController)
	controller.now = func() time.Time { return testutil.Date(2026, 6, 1) }
	return controller, repos
}

func testUser() *models.UserProfile {
	return &models.UserProfile{
		BaseUUIDModel: models.BaseUUIDModel{ID: uuid.New()},
		BaseCurrency:  "EUR",
	}
}

func TestPropertyController_CreateAndUpdate(t *testing.T) {
	controller, _ := newTestController(t)
	ctx := context.Background()
	user := testUser()

	property, err := controller.Create(ctx, user, &CreatePropertyRequest{
		Name:        "  Lake Cabin ",
		CleaningFee: decimal.NewFromInt(45),
	})
	require.NoError(t, err)
	assert.Equal(t, "Lake Cabin", property.Name)
	assert.Equal(t, "EUR", property.Currency)
	assert.Equal(t, models.DefaultCheckInTime, property.CheckInTime)
	assert.True(t, property.IsActive)
	assert.NotEmpty(t, property.CalendarExportToken)

	name := "Lake Cabin North"
	inactive := false
	updated, err := controller.Update(ctx, user, property.ID, &UpdatePropertyRequest{
		Name:     &name,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.CleaningFee.Equal(decimal.NewFromInt(45)))

	_, err = controller.Update(ctx, testUser(), property.ID, &UpdatePropertyRequest{Name: &name})
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestPropertyController_CreateValidation(t *testing.T) {
	controller, _ := newTestController(t)

	tests := []struct {
		name    string
		request CreatePropertyRequest
	}{
		{name: "missing name", request: CreatePropertyRequest{}},
		{name: "bad check in time", request: CreatePropertyRequest{Name: "A", CheckInTime: "3pm"}},
		{name: "bad currency", request: CreatePropertyRequest{Name: "A", Currency: "euro"}},
		{name: "bad cleaner email", request: CreatePropertyRequest{Name: "A", CleanerEmail: "nope"}},
		{name: "negative fee", request: CreatePropertyRequest{Name: "A", CleaningFee: decimal.NewFromInt(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := controller.Create(context.Background(), testUser(), &tt.request)
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}
}

func TestPropertyController_Delete(t *testing.T) {
	controller, repos := newTestController(t)
	ctx := context.Background()
	user := testUser()

	property, err := controller.Create(ctx, user, &CreatePropertyRequest{Name: "Loft"})
	require.NoError(t, err)

	require.NoError(t, repos.Booking.Create(ctx, controller.db.SQL, &models.Booking{
		UserID:     user.ID,
		PropertyID: property.ID,
		GuestName:  "Ann",
		CheckIn:    testutil.Date(2026, 6, 10),
		CheckOut:   testutil.Date(2026, 6, 12),
		Status:     models.BookingStatusConfirmed,
	}))

	err = controller.Delete(ctx, user, property.ID, false)
	assert.ErrorIs(t, err, ErrHasFutureBookings)
	assert.ErrorIs(t, err, types.ErrConflict)

	require.NoError(t, controller.Delete(ctx, user, property.ID, true))

	_, err = controller.Get(ctx, user, property.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = controller.Delete(ctx, user, property.ID, true)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestPropertyController_RotateExportToken(t *testing.T) {
	controller, _ := newTestController(t)
	ctx := context.Background()
	user := testUser()

	property, err := controller.Create(ctx, user, &CreatePropertyRequest{Name: "Loft"})
	require.NoError(t, err)

	rotated, err := controller.RotateExportToken(ctx, user, property.ID)
	require.NoError(t, err)
	assert.NotEqual(t, property.CalendarExportToken, rotated.Token)
	assert.Equal(
		t,
		"https://app.example.com/api/calendar/export/"+property.ID.String()+".ics?token="+rotated.Token,
		rotated.URL,
	)

	reloaded, err := controller.Get(ctx, user, property.ID)
	require.NoError(t, err)
	assert.Equal(t, rotated.Token, reloaded.CalendarExportToken)

	_, err = controller.RotateExportToken(ctx, testUser(), property.ID)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}
