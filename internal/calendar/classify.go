package calendar

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"hostly/internal/models"
)

const (
	MaxGuestNameLength = 120
	FallbackGuestName  = "Guest"
	AirbnbGuestName    = "Airbnb Guest"
	BookingGuestName   = "Booking.com Guest"
	VRBOGuestName      = "VRBO Guest"
)

var blockedKeywords = []string{
	"not available",
	"unavailable",
	"blocked",
	"owner block",
	"maintenance",
	"closed period",
}

var platformBlockedKeywords = map[models.Platform][]string{
	models.PlatformAirbnb: {"airbnb (not available)"},
	models.PlatformVRBO:   {"blocked"},
}

var (
	airbnbNameCodeRe  = regexp.MustCompile(`^(.+?)\s*\((HM[A-Z0-9]+)\)$`)
	airbnbDetailsRe   = regexp.MustCompile(`/details/(HM[A-Z0-9]+)`)
	phoneLast4Re      = regexp.MustCompile(`(?i)phone number \(last 4 digits\):\s*(\d{4})`)
	numGuestsRe       = regexp.MustCompile(`(?i)(?:number of guests|guests)\s*:\s*(\d+)`)
	vrboReservedRe    = regexp.MustCompile(`(?i)^reserved\s*-\s*(.+)$`)
	bookingClosedRe   = regexp.MustCompile(`(?i)^closed\s*-\s*not available$`)
	bookingPrefixedRe = regexp.MustCompile(`(?i)^booking\.com\s*-\s*(.+)$`)
)

// Classification is what the import heuristics extracted from one event.
type Classification struct {
	Blocked          bool
	Cancelled        bool
	GuestName        string
	ConfirmationCode string
	PhoneLast4       string
	NumGuests        int
}

func (c Classification) Importable() bool {
	return !c.Blocked && !c.Cancelled
}

func (c Classification) SkipReason() string {
	switch {
	case c.Cancelled:
		return SkipReasonCancelled
	case c.Blocked:
		return SkipReasonBlocked
	default:
		return ""
	}
}

// Classify decides whether an event is a reservation and extracts guest
// details using the conventions of each platform's export.
func Classify(event Event, platform models.Platform) Classification {
	var c Classification

	if event.Status == "CANCELLED" {
		c.Cancelled = true
		return c
	}

	summary := normalizeSpace(event.Summary)

	// Booking.com exports every reservation under this summary.
	if platform == models.PlatformBooking && bookingClosedRe.MatchString(summary) {
		c.GuestName = BookingGuestName
		c.NumGuests = extractNumGuests(event.Description)
		return c
	}

	if isBlocked(summary, platform) {
		c.Blocked = true
		return c
	}

	switch platform {
	case models.PlatformAirbnb:
		c.GuestName, c.ConfirmationCode = airbnbGuest(summary)
		if c.ConfirmationCode == "" {
			if m := airbnbDetailsRe.FindStringSubmatch(event.Description); m != nil {
				c.ConfirmationCode = m[1]
			}
		}
		if m := phoneLast4Re.FindStringSubmatch(event.Description); m != nil {
			c.PhoneLast4 = m[1]
		}
	case models.PlatformBooking:
		c.GuestName = bookingGuest(summary)
	case models.PlatformVRBO:
		c.GuestName = vrboGuest(summary)
	default:
		c.GuestName = summary
	}

	c.NumGuests = extractNumGuests(event.Description)
	c.GuestName = capName(c.GuestName)
	if c.GuestName == "" {
		c.GuestName = FallbackGuestName
	}

	return c
}

func isBlocked(summary string, platform models.Platform) bool {
	lower := strings.ToLower(summary)
	for _, keyword := range blockedKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	for _, keyword := range platformBlockedKeywords[platform] {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func airbnbGuest(summary string) (string, string) {
	if m := airbnbNameCodeRe.FindStringSubmatch(summary); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	if summary == "" || strings.EqualFold(summary, "reserved") {
		return AirbnbGuestName, ""
	}
	return summary, ""
}

func bookingGuest(summary string) string {
	if m := bookingPrefixedRe.FindStringSubmatch(summary); m != nil {
		return strings.TrimSpace(m[1])
	}
	if summary == "" {
		return BookingGuestName
	}
	return summary
}

func vrboGuest(summary string) string {
	if m := vrboReservedRe.FindStringSubmatch(summary); m != nil {
		return strings.TrimSpace(m[1])
	}
	if summary == "" || strings.EqualFold(summary, "reserved") {
		return VRBOGuestName
	}
	return summary
}

func extractNumGuests(description string) int {
	m := numGuestsRe.FindStringSubmatch(description)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capName(name string) string {
	name = normalizeSpace(name)
	if utf8.RuneCountInString(name) <= MaxGuestNameLength {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:MaxGuestNameLength]))
}
