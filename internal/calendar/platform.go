package calendar

import (
	"fmt"
	"net/url"
	"strings"

	"hostly/internal/models"

	"github.com/google/uuid"
)

// DetectPlatform infers the booking platform from an ICS feed URL host.
func DetectPlatform(rawURL string) models.Platform {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return models.PlatformOther
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	switch {
	case hostHasLabel(host, "airbnb"):
		return models.PlatformAirbnb
	case host == "booking.com" || strings.HasSuffix(host, ".booking.com"):
		return models.PlatformBooking
	case host == "vrbo.com" || strings.HasSuffix(host, ".vrbo.com"), hostHasLabel(host, "homeaway"):
		return models.PlatformVRBO
	default:
		return models.PlatformOther
	}
}

// hostHasLabel matches registrable names across country TLDs, e.g. airbnb.co.uk.
func hostHasLabel(host, label string) bool {
	for _, part := range strings.Split(host, ".") {
		if part == label {
			return true
		}
	}
	return false
}

// ExternalID is the upsert key of a synced booking.
func ExternalID(platform models.Platform, propertyID uuid.UUID, uid string) string {
	return fmt.Sprintf("%s:%s:%s", platform, propertyID, uid)
}

// ExternalIDPrefix selects every synced booking of one property feed.
func ExternalIDPrefix(platform models.Platform, propertyID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:", platform, propertyID)
}
