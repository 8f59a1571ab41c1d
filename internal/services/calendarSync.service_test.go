package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hostly/config"
	"hostly/internal/calendar"
	"hostly/internal/events"
	"hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airbnbFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Airbnb Inc//Hosting Calendar 1.0//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:jane@airbnb.com\r\n" +
	"DTSTART;VALUE=DATE:20260610\r\n" +
	"DTEND;VALUE=DATE:20260613\r\n" +
	"SUMMARY:Jane Doe (HMABC123)\r\n" +
	"DESCRIPTION:Phone Number (Last 4 Digits): 4321\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:reserved@airbnb.com\r\n" +
	"DTSTART;VALUE=DATE:20260620\r\n" +
	"DTEND;VALUE=DATE:20260622\r\n" +
	"SUMMARY:Reserved\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:block@airbnb.com\r\n" +
	"DTSTART;VALUE=DATE:20260701\r\n" +
	"DTEND;VALUE=DATE:20260705\r\n" +
	"SUMMARY:Airbnb (Not available)\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func newSyncFixture(t *testing.T) (*CalendarSyncService, repositories.Repository, *recordingPublisher) {
	t.Helper()

	db := setupSQLite(t)
	repos := repositories.New(db)
	publisher := &recordingPublisher{}
	service := NewCalendarSyncService(
		db,
		repos,
		NewTransactionService(db),
		publisher,
		config.Config{CalendarSyncTimeoutSec: 5},
	)
	service.now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }
	return service, repos, publisher
}

func createSyncSource(
	t *testing.T,
	service *CalendarSyncService,
	repos repositories.Repository,
	userID uuid.UUID,
	feedURL string,
) (*models.Property, *models.ReferralSiteConfig) {
	t.Helper()
	ctx := context.Background()

	property := &models.Property{
		UserID:               userID,
		Name:                 "Lake House",
		IsActive:             true,
		AutoScheduleCleaning: true,
		CleanerName:          "Dana",
	}
	require.NoError(t, repos.Property.Create(ctx, service.db.SQL, property))

	cfg := &models.ReferralSiteConfig{
		UserID:      userID,
		PropertyID:  property.ID,
		Platform:    models.PlatformAirbnb,
		ICSURL:      feedURL,
		SyncEnabled: true,
	}
	require.NoError(t, repos.ReferralSite.Save(ctx, service.db.SQL, cfg))
	return property, cfg
}

func feedServer(t *testing.T, body string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, feedUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/calendar")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestCalendarSyncService_SyncSource(t *testing.T) {
	ctx := context.Background()
	server, _ := feedServer(t, airbnbFeed, http.StatusOK)
	service, repos, publisher := newSyncFixture(t)
	userID := uuid.New()
	property, cfg := createSyncSource(t, service, repos, userID, server.URL)

	stale := func(uid string, checkIn, checkOut time.Time) {
		externalID := calendar.ExternalID(models.PlatformAirbnb, property.ID, uid)
		require.NoError(t, repos.Booking.Upsert(ctx, service.db.SQL, &models.Booking{
			UserID:     userID,
			PropertyID: property.ID,
			GuestName:  "Old Guest",
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Platform:   models.PlatformAirbnb,
			Status:     models.BookingStatusConfirmed,
			Source:     models.BookingSourceICS,
			ExternalID: &externalID,
		}))
	}
	stale("gone@airbnb.com", date(2026, 6, 25), date(2026, 6, 27))
	stale("past@airbnb.com", date(2026, 5, 1), date(2026, 5, 3))

	result, err := service.SyncSource(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSuccess, result.Status)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Deleted)
	assert.Empty(t, result.Errors)

	bookings, total, err := repos.Booking.List(ctx, service.db.SQL, userID, repositories.BookingFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "two imported plus the past stay")

	names := map[string]*models.Booking{}
	for _, booking := range bookings {
		names[booking.GuestName] = booking
	}
	require.Contains(t, names, "Jane Doe")
	assert.Equal(t, "HMABC123", names["Jane Doe"].ConfirmationCode)
	assert.Equal(t, "4321", names["Jane Doe"].PhoneLast4)
	assert.NotNil(t, names["Jane Doe"].LastSyncedAt)
	assert.Contains(t, names, calendar.AirbnbGuestName)
	assert.Contains(t, names, "Old Guest", "past stays are kept")

	cleanings, err := repos.Cleaning.List(ctx, service.db.SQL, userID, repositories.CleaningFilter{})
	require.NoError(t, err)
	assert.Len(t, cleanings, 2)

	stored, err := repos.ReferralSite.GetByID(ctx, service.db.SQL, userID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSuccess, stored.LastSyncStatus)
	assert.Equal(t, 2, stored.LastSyncStats.Data().Imported)
	assert.NotNil(t, stored.LastSyncedAt)

	assert.Equal(t, []events.MessageType{events.CALENDAR_SYNC_COMPLETE}, publisher.types())

	again, err := service.SyncSource(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 2, again.Updated)
	assert.Equal(t, 0, again.Deleted)

	cleanings, err = repos.Cleaning.List(ctx, service.db.SQL, userID, repositories.CleaningFilter{})
	require.NoError(t, err)
	assert.Len(t, cleanings, 2, "resync does not duplicate cleanings")
}

func TestCalendarSyncService_SyncSourceFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		url     func(serverURL string) string
		wantErr error
	}{
		{
			name:    "server error",
			body:    "oops",
			status:  http.StatusInternalServerError,
			url:     func(u string) string { return u },
			wantErr: ErrFeedUnavailable,
		},
		{
			name:    "unsupported scheme",
			status:  http.StatusOK,
			url:     func(string) string { return "ftp://example.com/feed.ics" },
			wantErr: ErrInvalidFeedURL,
		},
		{
			name:    "missing url",
			status:  http.StatusOK,
			url:     func(string) string { return "" },
			wantErr: ErrNoFeedURL,
		},
		{
			name:    "not a calendar",
			body:    "<html>login</html>",
			status:  http.StatusOK,
			url:     func(u string) string { return u },
			wantErr: calendar.ErrInvalidCalendar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			server, _ := feedServer(t, tt.body, tt.status)
			service, repos, publisher := newSyncFixture(t)
			userID := uuid.New()
			_, cfg := createSyncSource(t, service, repos, userID, tt.url(server.URL))

			result, err := service.SyncSource(ctx, cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			require.NotNil(t, result)
			assert.Equal(t, models.SyncStatusFailed, result.Status)
			assert.NotEmpty(t, result.Error)

			stored, err := repos.ReferralSite.GetByID(ctx, service.db.SQL, userID, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SyncStatusFailed, stored.LastSyncStatus)
			assert.Equal(t, []events.MessageType{events.CALENDAR_SYNC_ERROR}, publisher.types())
		})
	}
}

func TestCalendarSyncService_SyncUserContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	good, goodCalls := feedServer(t, airbnbFeed, http.StatusOK)
	bad, _ := feedServer(t, "", http.StatusNotFound)

	service, repos, publisher := newSyncFixture(t)
	userID := uuid.New()
	_, failing := createSyncSource(t, service, repos, userID, bad.URL)
	_, working := createSyncSource(t, service, repos, userID, good.URL)

	results, err := service.SyncUser(ctx, userID, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byConfig := map[uuid.UUID]*SyncResult{}
	for _, result := range results {
		byConfig[result.ConfigID] = result
	}
	assert.Equal(t, models.SyncStatusFailed, byConfig[failing.ID].Status)
	assert.Equal(t, models.SyncStatusSuccess, byConfig[working.ID].Status)
	assert.Equal(t, 2, byConfig[working.ID].Imported)
	assert.Equal(t, int32(1), goodCalls.Load())

	types := publisher.types()
	assert.Contains(t, types, events.CALENDAR_SYNC_PROGRESS)
	assert.Contains(t, types, events.CALENDAR_SYNC_ERROR)
	assert.Contains(t, types, events.CALENDAR_SYNC_COMPLETE)

	total, err := service.SyncAllUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total.Updated)
}

func TestCalendarSyncService_FetchTooLarge(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\n" + strings.Repeat("X", MaxFeedBytes) + "\r\nEND:VCALENDAR\r\n"
	server, _ := feedServer(t, body, http.StatusOK)
	service, _, _ := newSyncFixture(t)

	_, err := service.fetch(context.Background(), server.URL, nil)
	assert.ErrorIs(t, err, ErrFeedTooLarge)
}

func TestNormalizeFeedURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://www.airbnb.com/calendar/ical/1.ics?s=x", want: "https://www.airbnb.com/calendar/ical/1.ics?s=x"},
		{in: " webcal://example.com/feed.ics ", want: "https://example.com/feed.ics"},
		{in: "http://example.com/a.ics", want: "http://example.com/a.ics"},
		{in: "file:///etc/passwd", wantErr: true},
		{in: "https:///nohost", wantErr: true},
		{in: "::::", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeFeedURL(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFeedURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func airbnbEvent(uid, start, end, summary string) string {
	return "BEGIN:VEVENT\r\n" +
		"UID:" + uid + "\r\n" +
		"DTSTART;VALUE=DATE:" + start + "\r\n" +
		"DTEND;VALUE=DATE:" + end + "\r\n" +
		"SUMMARY:" + summary + "\r\n" +
		"END:VEVENT\r\n"
}

func airbnbCalendar(events ...string) string {
	return "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Airbnb Inc//Hosting Calendar 1.0//EN\r\n" +
		strings.Join(events, "") +
		"END:VCALENDAR\r\n"
}

func switchableFeed(t *testing.T, initial string) (*httptest.Server, *atomic.Value) {
	t.Helper()

	var body atomic.Value
	body.Store(initial)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(body.Load().(string)))
	}))
	t.Cleanup(server.Close)
	return server, &body
}

func cleaningsByBooking(t *testing.T, service *CalendarSyncService, userID uuid.UUID) map[uuid.UUID][]*models.Cleaning {
	t.Helper()

	var cleanings []*models.Cleaning
	require.NoError(t, service.db.SQL.Where("user_id = ?", userID).Find(&cleanings).Error)

	byBooking := map[uuid.UUID][]*models.Cleaning{}
	for _, cleaning := range cleanings {
		require.NotNil(t, cleaning.BookingID)
		byBooking[*cleaning.BookingID] = append(byBooking[*cleaning.BookingID], cleaning)
	}
	return byBooking
}

func TestCalendarSyncService_CleaningsFollowFeed(t *testing.T) {
	ctx := context.Background()
	original := airbnbCalendar(
		airbnbEvent("jane@airbnb.com", "20260610", "20260613", "Jane Doe (HMABC123)"),
		airbnbEvent("reserved@airbnb.com", "20260620", "20260622", "Reserved"),
	)
	server, feed := switchableFeed(t, original)
	service, repos, _ := newSyncFixture(t)
	userID := uuid.New()
	property, cfg := createSyncSource(t, service, repos, userID, server.URL)

	_, err := service.SyncSource(ctx, cfg)
	require.NoError(t, err)

	bookingID := func(uid string) uuid.UUID {
		externalID := calendar.ExternalID(models.PlatformAirbnb, property.ID, uid)
		var booking models.Booking
		require.NoError(t, service.db.SQL.Unscoped().Where("external_id = ?", externalID).First(&booking).Error)
		return booking.ID
	}
	jane := bookingID("jane@airbnb.com")
	reserved := bookingID("reserved@airbnb.com")

	// checkout moved and the second stay dropped from the feed
	feed.Store(airbnbCalendar(
		airbnbEvent("jane@airbnb.com", "20260610", "20260614", "Jane Doe (HMABC123)"),
	))
	result, err := service.SyncSource(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Deleted)

	cleanings := cleaningsByBooking(t, service, userID)
	require.Len(t, cleanings[jane], 1)
	assert.Equal(t, date(2026, 6, 14), cleanings[jane][0].ScheduledDate.UTC())
	assert.Equal(t, models.CleaningStatusScheduled, cleanings[jane][0].Status)
	require.Len(t, cleanings[reserved], 1)
	assert.Equal(t, models.CleaningStatusCancelled, cleanings[reserved][0].Status)

	// the dropped stay comes back
	feed.Store(original)
	_, err = service.SyncSource(ctx, cfg)
	require.NoError(t, err)

	cleanings = cleaningsByBooking(t, service, userID)
	assert.Equal(t, date(2026, 6, 13), cleanings[jane][0].ScheduledDate.UTC())
	require.Len(t, cleanings[reserved], 2)

	statuses := []models.CleaningStatus{cleanings[reserved][0].Status, cleanings[reserved][1].Status}
	assert.ElementsMatch(t, []models.CleaningStatus{models.CleaningStatusCancelled, models.CleaningStatusScheduled}, statuses)

	upcoming, err := repos.Cleaning.List(ctx, service.db.SQL, userID, repositories.CleaningFilter{
		Status: models.CleaningStatusScheduled,
	})
	require.NoError(t, err)
	assert.Len(t, upcoming, 2)
}

func TestCalendarSyncService_RolledBackSyncReportsNoChanges(t *testing.T) {
	ctx := context.Background()
	server, _ := feedServer(t, airbnbFeed, http.StatusOK)
	service, repos, _ := newSyncFixture(t)
	userID := uuid.New()
	_, cfg := createSyncSource(t, service, repos, userID, server.URL)

	_, err := service.SyncSource(ctx, cfg)
	require.NoError(t, err)

	// updates must move cleanings, so without the table the write fails
	require.NoError(t, service.db.SQL.Migrator().DropTable(&models.Cleaning{}))

	result, err := service.SyncSource(ctx, cfg)
	require.Error(t, err)
	assert.Equal(t, models.SyncStatusFailed, result.Status)
	assert.Equal(t, 3, result.Fetched)
	assert.Zero(t, result.Imported)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Deleted)
	assert.Empty(t, result.Errors)

	stored, err := repos.ReferralSite.GetByID(ctx, service.db.SQL, userID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, stored.LastSyncStatus)
	assert.Zero(t, stored.LastSyncStats.Data().Updated)
}

func TestCalendarSyncService_FeedBasicAuth(t *testing.T) {
	ctx := context.Background()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != "owner" || password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(airbnbFeed))
	}))
	t.Cleanup(server.Close)

	service, repos, _ := newSyncFixture(t)
	service.cipher = utils.NewCipher("feed-secret")
	userID := uuid.New()
	_, cfg := createSyncSource(t, service, repos, userID, server.URL)

	result, err := service.SyncSource(ctx, cfg)
	assert.ErrorIs(t, err, ErrFeedUnavailable)
	assert.Equal(t, models.SyncStatusFailed, result.Status)

	encrypted, err := service.cipher.Encrypt("hunter2")
	require.NoError(t, err)
	cfg.Username = "owner"
	cfg.EncryptedPassword = encrypted

	result, err = service.SyncSource(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	cfg.EncryptedPassword = "enc:not-base64"
	_, err = service.SyncSource(ctx, cfg)
	assert.ErrorIs(t, err, utils.ErrDecryptFailed)
}
