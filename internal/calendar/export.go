package calendar

import (
	"fmt"
	"strings"
	"time"

	"hostly/internal/models"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//hostly//property calendar//EN"

// Export renders a property calendar with one all-day event per booking
// that still occupies the property.
func Export(property *models.Property, bookings []models.Booking, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(property.Name)

	for _, booking := range bookings {
		if booking.Status == models.BookingStatusCancelled {
			continue
		}

		event := cal.AddEvent(booking.ID.String() + "@hostly")
		event.SetDtStampTime(now.UTC())
		event.SetSummary("Reserved")
		event.SetDescription(exportDescription(booking))
		event.SetAllDayStartAt(models.DateOnly(booking.CheckIn))
		event.SetAllDayEndAt(models.DateOnly(booking.CheckOut))
	}

	return cal.Serialize()
}

func exportDescription(booking models.Booking) string {
	parts := []string{
		fmt.Sprintf("Guest: %s", booking.GuestName),
		fmt.Sprintf("Platform: %s", booking.Platform),
		fmt.Sprintf("Guests: %d", booking.NumGuests),
	}
	if booking.ConfirmationCode != "" {
		parts = append(parts, fmt.Sprintf("Confirmation: %s", booking.ConfirmationCode))
	}
	return strings.Join(parts, "\n")
}
