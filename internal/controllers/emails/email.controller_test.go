package emailController

import (
	"context"
	"errors"
	"testing"
	"time"

	"hostly/config"
	"hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/testutil"
	"hostly/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []services.EmailMessage
	err  error
}

func (s *fakeSender) Send(ctx context.Context, message services.EmailMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, message)
	return "sg-123", nil
}

type fixture struct {
	controller *EmailController
	repos      repositories.Repository
	sender     *fakeSender
	user       *models.UserProfile
	property   *models.Property
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	svc, err := services.New(db, config.Config{}, nil)
	require.NoError(t, err)
	sender := &fakeSender{}
	svc.Email = services.NewEmailServiceWithSender(sender)
	repos := repositories.New(db)

	user := &models.UserProfile{
		BaseUUIDModel: models.BaseUUIDModel{ID: uuid.New()},
		CompanyName:   "Seaside Stays",
	}
	property := &models.Property{UserID: user.ID, Name: "Pier Loft", IsActive: true}
	require.NoError(t, repos.Property.Create(context.Background(), db.SQL, property))

	controller := New(repos, svc, config.Config{}, db).(*EmailController)
	controller.now = func() time.Time { return time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC) }

	return fixture{controller: controller, repos: repos, sender: sender, user: user, property: property}
}

func (f fixture) cleaning(t *testing.T, cleanerEmail string) *models.Cleaning {
	t.Helper()
	cleaning := &models.Cleaning{
		UserID:        f.user.ID,
		PropertyID:    f.property.ID,
		ScheduledDate: testutil.Date(2026, 6, 4),
		CleanerName:   "Rae",
		CleanerEmail:  cleanerEmail,
	}
	require.NoError(t, f.repos.Cleaning.Create(context.Background(), f.controller.db.SQL, cleaning))
	return cleaning
}

func TestEmailController_SendCleaningEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cleaning := f.cleaning(t, "rae@example.com")

	next := &models.Booking{
		UserID:     f.user.ID,
		PropertyID: f.property.ID,
		GuestName:  "Next Guest",
		NumGuests:  2,
		CheckIn:    testutil.Date(2026, 6, 4),
		CheckOut:   testutil.Date(2026, 6, 8),
	}
	require.NoError(t, f.repos.Booking.Create(ctx, f.controller.db.SQL, next))

	entry, err := f.controller.SendCleaningEmail(ctx, f.user, cleaning.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmailStatusSent, entry.Status)
	assert.Equal(t, "sg-123", entry.ProviderMessageID)
	assert.Equal(t, "Cleaning scheduled: Pier Loft on Jun 4", entry.Subject)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "rae@example.com", f.sender.sent[0].ToEmail)
	assert.Contains(t, f.sender.sent[0].PlainText, "Seaside Stays")

	logs, err := f.controller.ListCleaningLogs(ctx, f.user, &cleaning.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "rae@example.com", logs[0].Recipient)
}

func TestEmailController_SendCleaningEmailFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.controller.SendCleaningEmail(ctx, f.user, uuid.New())
	assert.ErrorIs(t, err, ErrCleaningNotFound)

	noEmail := f.cleaning(t, "")
	_, err = f.controller.SendCleaningEmail(ctx, f.user, noEmail.ID)
	assert.ErrorIs(t, err, ErrNoCleanerEmail)
	assert.ErrorIs(t, err, types.ErrValidation)

	f.sender.err = errors.New("provider down")
	cleaning := f.cleaning(t, "rae@example.com")
	entry, err := f.controller.SendCleaningEmail(ctx, f.user, cleaning.ID)
	assert.ErrorIs(t, err, ErrEmailNotDelivered)
	require.NotNil(t, entry)
	assert.Equal(t, models.EmailStatusFailed, entry.Status)
	assert.Equal(t, "provider down", entry.ErrorMessage)

	logs, err := f.controller.ListCleaningLogs(ctx, f.user, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EmailStatusFailed, logs[0].Status)
}

func TestEmailController_SendGuestEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booking := &models.Booking{
		UserID:     f.user.ID,
		PropertyID: f.property.ID,
		GuestName:  "Ivy",
		CheckIn:    testutil.Date(2026, 6, 10),
		CheckOut:   testutil.Date(2026, 6, 12),
	}
	require.NoError(t, f.repos.Booking.Create(ctx, f.controller.db.SQL, booking))

	request := &GuestEmailRequest{BookingID: booking.ID, Subject: "Welcome", Message: "Door code is 1234"}
	_, err := f.controller.SendGuestEmail(ctx, f.user, request)
	assert.ErrorIs(t, err, ErrNoGuestEmail)

	require.NoError(t, f.repos.Booking.Update(ctx, f.controller.db.SQL, f.user.ID, booking.ID,
		map[string]any{"guest_email": "ivy@example.com"}))

	response, err := f.controller.SendGuestEmail(ctx, f.user, request)
	require.NoError(t, err)
	assert.Equal(t, "sg-123", response.MessageID)
	assert.Equal(t, "ivy@example.com", response.Recipient)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "Welcome", f.sender.sent[0].Subject)

	_, err = f.controller.SendGuestEmail(ctx, f.user, &GuestEmailRequest{BookingID: booking.ID})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = f.controller.SendGuestEmail(ctx, f.user, &GuestEmailRequest{BookingID: uuid.New(), Subject: "a", Message: "b"})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
