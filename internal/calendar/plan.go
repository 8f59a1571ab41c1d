package calendar

import (
	"strings"
	"time"

	"hostly/internal/models"

	"github.com/google/uuid"
)

// Source identifies the property feed a set of events came from.
type Source struct {
	UserID     uuid.UUID
	PropertyID uuid.UUID
	Platform   models.Platform
	Currency   string
}

// PlannedBooking is a booking ready to be upserted by external id. ExistingID
// is set when a row, possibly soft-deleted, already holds that external id.
type PlannedBooking struct {
	Booking    models.Booking
	ExistingID uuid.UUID
	Revived    bool
}

func (p PlannedBooking) IsNew() bool {
	return p.ExistingID == uuid.Nil || p.Revived
}

// Reconciliation is the full set of changes one feed implies for the store.
type Reconciliation struct {
	Upserts   []PlannedBooking
	Deletions []uuid.UUID
	Skipped   []SkippedEvent
}

// Plan reconciles feed events against the stored bookings of the same source.
// existing must include soft-deleted rows so that reappearing events reuse
// their id. Stored bookings missing from the feed are deleted only when their
// checkout is today or later; feeds drop past stays and history is kept.
func Plan(source Source, events []Event, existing []models.Booking, today time.Time) Reconciliation {
	var plan Reconciliation
	today = models.DateOnly(today)
	prefix := ExternalIDPrefix(source.Platform, source.PropertyID)

	byExternalID := make(map[string]models.Booking, len(existing))
	for _, booking := range existing {
		if booking.ExternalID == nil || !strings.HasPrefix(*booking.ExternalID, prefix) {
			continue
		}
		byExternalID[*booking.ExternalID] = booking
	}

	seen := make(map[string]struct{}, len(events))
	for _, event := range events {
		externalID := ExternalID(source.Platform, source.PropertyID, event.UID)
		if _, dup := seen[externalID]; dup {
			plan.Skipped = append(plan.Skipped, SkippedEvent{UID: event.UID, Reason: SkipReasonDuplicate})
			continue
		}

		classification := Classify(event, source.Platform)
		if !classification.Importable() {
			plan.Skipped = append(plan.Skipped, SkippedEvent{UID: event.UID, Reason: classification.SkipReason()})
			continue
		}

		checkIn := models.DateOnly(event.Start)
		checkOut := models.DateOnly(event.End)
		if !checkOut.After(checkIn) {
			checkOut = checkIn.AddDate(0, 0, 1)
		}

		seen[externalID] = struct{}{}
		planned := PlannedBooking{
			Booking: newSyncedBooking(source, externalID, classification, checkIn, checkOut),
		}
		if stored, ok := byExternalID[externalID]; ok {
			planned.ExistingID = stored.ID
			planned.Revived = stored.DeletedAt.Valid
			planned.Booking.ID = stored.ID
			mergeManualFields(&planned.Booking, stored)
		}
		plan.Upserts = append(plan.Upserts, planned)
	}

	for externalID, stored := range byExternalID {
		if stored.DeletedAt.Valid {
			continue
		}
		if _, ok := seen[externalID]; ok {
			continue
		}
		if models.DateOnly(stored.CheckOut).Before(today) {
			continue
		}
		plan.Deletions = append(plan.Deletions, stored.ID)
	}

	return plan
}

func newSyncedBooking(
	source Source,
	externalID string,
	classification Classification,
	checkIn, checkOut time.Time,
) models.Booking {
	numGuests := classification.NumGuests
	if numGuests < 1 {
		numGuests = 1
	}

	return models.Booking{
		UserID:           source.UserID,
		PropertyID:       source.PropertyID,
		GuestName:        classification.GuestName,
		PhoneLast4:       classification.PhoneLast4,
		NumGuests:        numGuests,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Currency:         source.Currency,
		Platform:         source.Platform,
		Status:           models.BookingStatusConfirmed,
		ConfirmationCode: classification.ConfirmationCode,
		Source:           models.BookingSourceICS,
		ExternalID:       &externalID,
	}
}

// mergeManualFields keeps details a host or guest entered by hand when the
// feed only carries a placeholder.
func mergeManualFields(planned *models.Booking, stored models.Booking) {
	if isPlaceholderName(planned.GuestName) && stored.GuestName != "" {
		planned.GuestName = stored.GuestName
	}
	if planned.ConfirmationCode == "" {
		planned.ConfirmationCode = stored.ConfirmationCode
	}
	if planned.PhoneLast4 == "" {
		planned.PhoneLast4 = stored.PhoneLast4
	}
	if planned.NumGuests <= 1 && stored.NumGuests > 1 {
		planned.NumGuests = stored.NumGuests
	}
	planned.GuestEmail = stored.GuestEmail
	planned.GuestPhone = stored.GuestPhone
	planned.Notes = stored.Notes
	planned.TotalAmount = stored.TotalAmount
	planned.CheckedInAt = stored.CheckedInAt
	planned.ArrivalTime = stored.ArrivalTime
}

func isPlaceholderName(name string) bool {
	switch name {
	case FallbackGuestName, AirbnbGuestName, BookingGuestName, VRBOGuestName:
		return true
	}
	return false
}
