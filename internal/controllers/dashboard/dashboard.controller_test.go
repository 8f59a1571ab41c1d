package dashboardController

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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
	controller *DashboardController
	repos      repositories.Repository
	user       *models.UserProfile
	property   *models.Property
	rateCalls  *atomic.Int32
}

func newFixture(t *testing.T, ratesStatus int) *fixture {
	t.Helper()

	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if ratesStatus != http.StatusOK {
			w.WriteHeader(ratesStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","base_code":"EUR","rates":{"EUR":1,"USD":1.25}}`))
	}))
	t.Cleanup(server.Close)

	db := testutil.NewSQLiteDB(t)
	cfg := config.Config{CurrencyAPIURL: server.URL}
	svc, err := services.New(db, cfg, nil)
	require.NoError(t, err)

	repos := repositories.New(db)
	controller := New(repos, svc, cfg, db).(*DashboardController)
	controller.now = func() time.Time { return time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC) }

	user := &models.UserProfile{
		BaseUUIDModel: models.BaseUUIDModel{ID: uuid.New()},
		BaseCurrency:  "EUR",
	}
	property := &models.Property{
		UserID:   user.ID,
		Name:     "Harbour Flat",
		Currency: "EUR",
		IsActive: true,
	}
	require.NoError(t, repos.Property.Create(context.Background(), db.SQL, property))

	return &fixture{
		controller: controller,
		repos:      repos,
		user:       user,
		property:   property,
		rateCalls:  calls,
	}
}

func (f *fixture) addBooking(
	t *testing.T,
	checkIn, checkOut time.Time,
	amount int64,
	currency string,
	platform models.Platform,
	status models.BookingStatus,
) {
	t.Helper()
	booking := &models.Booking{
		UserID:      f.user.ID,
		PropertyID:  f.property.ID,
		GuestName:   "Guest " + checkIn.Format("0102"),
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		TotalAmount: decimal.NewFromInt(amount),
		Currency:    currency,
		Platform:    platform,
		Status:      status,
	}
	require.NoError(t, f.repos.Booking.Create(context.Background(), f.controller.db.SQL, booking))
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	d := testutil.Date

	f.addBooking(t, d(2026, 6, 5), d(2026, 6, 8), 300, "EUR", models.PlatformAirbnb, models.BookingStatusConfirmed)
	f.addBooking(t, d(2026, 5, 30), d(2026, 6, 2), 200, "USD", models.PlatformVRBO, models.BookingStatusConfirmed)
	f.addBooking(t, d(2026, 6, 20), d(2026, 6, 25), 100, "USD", models.PlatformDirect, models.BookingStatusConfirmed)
	f.addBooking(t, d(2026, 6, 12), d(2026, 6, 14), 50, "GBP", models.PlatformBooking, models.BookingStatusPending)
	f.addBooking(t, d(2026, 6, 15), d(2026, 6, 18), 900, "EUR", models.PlatformAirbnb, models.BookingStatusCancelled)

	cleaning := &models.Cleaning{
		UserID:        f.user.ID,
		PropertyID:    f.property.ID,
		ScheduledDate: d(2026, 6, 14),
		CleanerName:   "Ana",
	}
	require.NoError(t, f.repos.Cleaning.Create(context.Background(), f.controller.db.SQL, cleaning))
}

func TestDashboardController_StatsDefaultsToCurrentMonth(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	f.seed(t)

	stats, err := f.controller.Stats(context.Background(), f.user, &StatsRequest{})
	require.NoError(t, err)

	assert.Equal(t, "2026-06-01", stats.From)
	assert.Equal(t, "2026-07-01", stats.To)
	assert.Equal(t, "EUR", stats.Currency)
	assert.Equal(t, 4, stats.BookingCount)
	assert.Equal(t, 11, stats.NightsBooked)
	assert.Equal(t, int64(1), stats.ActiveProperties)
	assert.True(t, stats.OccupancyRate.Equal(decimal.RequireFromString("0.3667")), stats.OccupancyRate.String())

	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(380)), stats.Revenue.String())
	assert.True(t, stats.RevenueByPlatform[models.PlatformAirbnb].Equal(decimal.NewFromInt(300)))
	assert.True(t, stats.RevenueByPlatform[models.PlatformDirect].Equal(decimal.NewFromInt(80)))
	assert.Equal(t, []string{"GBP"}, stats.UnconvertedCurrencies)
	assert.Equal(t, int32(1), f.rateCalls.Load())

	require.Len(t, stats.UpcomingCheckIns, 1)
	assert.Equal(t, "2026-06-12", stats.UpcomingCheckIns[0].CheckIn)
	assert.Equal(t, "Harbour Flat", stats.UpcomingCheckIns[0].PropertyName)

	require.Len(t, stats.UpcomingCleanings, 1)
	assert.Equal(t, "2026-06-14", stats.UpcomingCleanings[0].ScheduledDate)
	assert.Equal(t, "Ana", stats.UpcomingCleanings[0].CleanerName)
}

func TestDashboardController_StatsWithoutRates(t *testing.T) {
	f := newFixture(t, http.StatusInternalServerError)
	f.seed(t)

	stats, err := f.controller.Stats(context.Background(), f.user, &StatsRequest{
		From: "2026-06-01",
		To:   "2026-06-11",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.BookingCount)
	assert.Equal(t, 4, stats.NightsBooked)
	assert.True(t, stats.OccupancyRate.Equal(decimal.RequireFromString("0.4")), stats.OccupancyRate.String())
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(300)), stats.Revenue.String())
	assert.Empty(t, stats.UnconvertedCurrencies)
	assert.Zero(t, f.rateCalls.Load())
}

func TestDashboardController_StatsListsUnconvertedCurrencies(t *testing.T) {
	f := newFixture(t, http.StatusInternalServerError)
	f.seed(t)

	stats, err := f.controller.Stats(context.Background(), f.user, &StatsRequest{})
	require.NoError(t, err)

	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(300)), stats.Revenue.String())
	assert.Equal(t, []string{"GBP", "USD"}, stats.UnconvertedCurrencies)
	assert.Equal(t, int32(1), f.rateCalls.Load())
}

func TestDashboardController_StatsValidation(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	tests := []struct {
		name    string
		request StatsRequest
	}{
		{name: "bad from", request: StatsRequest{From: "June"}},
		{name: "reversed range", request: StatsRequest{From: "2026-06-10", To: "2026-06-01"}},
		{name: "empty range", request: StatsRequest{From: "2026-06-10", To: "2026-06-10"}},
		{name: "range too long", request: StatsRequest{From: "2024-01-01", To: "2026-01-01"}},
		{name: "bad property id", request: StatsRequest{PropertyID: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.Stats(context.Background(), f.user, &tt.request)
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}

	_, err := f.controller.Stats(context.Background(), f.user, &StatsRequest{PropertyID: uuid.NewString()})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDashboardController_StatsForProperty(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	f.seed(t)

	other := &models.Property{UserID: f.user.ID, Name: "Cottage", IsActive: true}
	require.NoError(t, f.repos.Property.Create(context.Background(), f.controller.db.SQL, other))

	stats, err := f.controller.Stats(context.Background(), f.user, &StatsRequest{PropertyID: other.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ActiveProperties)
	assert.Zero(t, stats.BookingCount)
	assert.True(t, stats.OccupancyRate.IsZero())
	assert.Empty(t, stats.UpcomingCheckIns)
	assert.Empty(t, stats.UpcomingCleanings)

	all, err := f.controller.Stats(context.Background(), f.user, &StatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.ActiveProperties)
	assert.True(t, all.OccupancyRate.Equal(decimal.RequireFromString("0.1833")), all.OccupancyRate.String())
}

func TestDashboardController_Rates(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rates, err := f.controller.Rates(context.Background(), f.user, &RatesRequest{})
	require.NoError(t, err)
	assert.Equal(t, "EUR", rates.Base)
	assert.True(t, rates.Rates["USD"].Equal(decimal.RequireFromString("1.25")))

	_, err = f.controller.Rates(context.Background(), f.user, &RatesRequest{Base: "euro"})
	assert.ErrorIs(t, err, types.ErrValidation)

	failing := newFixture(t, http.StatusBadGateway)
	_, err = failing.controller.Rates(context.Background(), failing.user, &RatesRequest{Base: "USD"})
	assert.ErrorIs(t, err, ErrRatesUnavailable)
	assert.ErrorIs(t, err, types.ErrUpstream)
}
