package seed

import (
	"errors"
	"time"

	"hostly/config"
	. "hostly/internal/models"
	"hostly/internal/services"
	"hostly/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DevUserID is the auth subject of the seeded host. A token for it is logged
// so the API can be exercised locally.
var DevUserID = uuid.MustParse("0195a4c2-7d3e-7000-8000-000000000001")

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	user := &UserProfile{
		BaseUUIDModel: BaseUUIDModel{ID: DevUserID},
		Email:         "host@example.com",
		FullName:      "Dev Host",
		CompanyName:   "Hostly Stays",
		BaseCurrency:  "USD",
		Timezone:      "UTC",
		IsAdmin:       true,
	}
	if err := db.FirstOrCreate(user, "id = ?", user.ID).Error; err != nil {
		return log.Err("failed to seed user", err)
	}

	today := DateOnly(time.Now())
	properties := []*Property{
		{
			UserID:               user.ID,
			Name:                 "Lakeside Cabin",
			City:                 "Tahoe City",
			Country:              "US",
			Bedrooms:             2,
			Bathrooms:            1,
			MaxGuests:            4,
			Currency:             "USD",
			CleanerName:          "Maria",
			CleanerEmail:         "cleaner@example.com",
			CleaningFee:          decimal.NewFromInt(85),
			AutoScheduleCleaning: true,
			IsActive:             true,
		},
		{
			UserID:      user.ID,
			Name:        "Old Town Loft",
			City:        "Lisbon",
			Country:     "PT",
			Bedrooms:    1,
			Bathrooms:   1,
			MaxGuests:   2,
			Currency:    "EUR",
			CleaningFee: decimal.NewFromInt(40),
			IsActive:    true,
		},
	}

	for _, property := range properties {
		var existing Property
		err := db.First(&existing, "user_id = ? AND name = ?", property.UserID, property.Name).Error
		if err == nil {
			*property = existing
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return log.Err("failed to look up property", err, "name", property.Name)
		}

		token, err := utils.GenerateToken()
		if err != nil {
			return log.Err("failed to generate export token", err)
		}
		property.CalendarExportToken = token
		if err := db.Create(property).Error; err != nil {
			return log.Err("failed to seed property", err, "name", property.Name)
		}
	}

	bookings := []*Booking{
		{
			PropertyID:  properties[0].ID,
			GuestName:   "Ada Lovelace",
			GuestEmail:  "ada@example.com",
			NumGuests:   2,
			CheckIn:     today.AddDate(0, 0, 3),
			CheckOut:    today.AddDate(0, 0, 6),
			TotalAmount: decimal.NewFromInt(540),
			Currency:    "USD",
			Platform:    PlatformAirbnb,
		},
		{
			PropertyID:  properties[0].ID,
			GuestName:   "Grace Hopper",
			NumGuests:   3,
			CheckIn:     today.AddDate(0, 0, 10),
			CheckOut:    today.AddDate(0, 0, 14),
			TotalAmount: decimal.NewFromInt(720),
			Currency:    "USD",
			Platform:    PlatformVRBO,
		},
		{
			PropertyID:  properties[1].ID,
			GuestName:   "Alan Turing",
			NumGuests:   1,
			CheckIn:     today.AddDate(0, 0, 1),
			CheckOut:    today.AddDate(0, 0, 4),
			TotalAmount: decimal.NewFromInt(300),
			Currency:    "EUR",
			Platform:    PlatformDirect,
		},
	}

	for _, booking := range bookings {
		booking.UserID = user.ID
		booking.Status = BookingStatusConfirmed

		var count int64
		if err := db.Model(&Booking{}).
			Where("property_id = ? AND guest_name = ?", booking.PropertyID, booking.GuestName).
			Count(&count).Error; err != nil {
			return log.Err("failed to look up booking", err)
		}
		if count > 0 {
			continue
		}

		if err := db.Create(booking).Error; err != nil {
			return log.Err("failed to seed booking", err, "guest", booking.GuestName)
		}

		property := properties[0]
		if booking.PropertyID != property.ID {
			property = properties[1]
		}
		if property.AutoScheduleCleaning {
			if err := db.Create(NewCleaningForBooking(property, booking)).Error; err != nil {
				return log.Err("failed to seed cleaning", err, "guest", booking.GuestName)
			}
		}
	}

	site := &ReferralSiteConfig{
		UserID:      user.ID,
		PropertyID:  properties[0].ID,
		Platform:    PlatformAirbnb,
		ICSURL:      "https://www.airbnb.com/calendar/ical/000000.ics?s=example",
		SyncEnabled: false,
	}
	if err := db.Where(ReferralSiteConfig{
		UserID:     site.UserID,
		PropertyID: site.PropertyID,
		Platform:   site.Platform,
	}).FirstOrCreate(site).Error; err != nil {
		return log.Err("failed to seed referral site", err)
	}

	if token, err := services.NewAuthService(config).IssueToken(user.ID, user.Email, 30*24*time.Hour); err == nil {
		log.Info("Seeded development host", "userID", user.ID, "token", token)
	} else {
		log.Warn("Could not issue development token", "error", err)
	}

	return nil
}
