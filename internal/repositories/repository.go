package repositories

import (
	"errors"

	"hostly/internal/database"
)

var ErrNotFound = errors.New("record not found")

type Repository struct {
	User             UserRepository
	Property         PropertyRepository
	Booking          BookingRepository
	Cleaning         CleaningRepository
	GuestToken       GuestTokenRepository
	ReferralSite     ReferralSiteRepository
	CleaningEmailLog CleaningEmailLogRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:             NewUserRepository(db.Cache.User),
		Property:         NewPropertyRepository(db.Cache.User),
		Booking:          NewBookingRepository(),
		Cleaning:         NewCleaningRepository(),
		GuestToken:       NewGuestTokenRepository(),
		ReferralSite:     NewReferralSiteRepository(),
		CleaningEmailLog: NewCleaningEmailLogRepository(),
	}
}
