package controllers

import (
	"hostly/config"
	"hostly/internal/database"
	"hostly/internal/repositories"
	"hostly/internal/services"

	adminController "hostly/internal/controllers/admin"
	bookingController "hostly/internal/controllers/bookings"
	calendarController "hostly/internal/controllers/calendar"
	cleaningController "hostly/internal/controllers/cleanings"
	dashboardController "hostly/internal/controllers/dashboard"
	emailController "hostly/internal/controllers/emails"
	guestCheckinController "hostly/internal/controllers/guestCheckin"
	propertyController "hostly/internal/controllers/properties"
	referralSiteController "hostly/internal/controllers/referralSites"
	userController "hostly/internal/controllers/users"
)

type Controllers struct {
	User         userController.UserControllerInterface
	Property     propertyController.PropertyControllerInterface
	Booking      bookingController.BookingControllerInterface
	Cleaning     cleaningController.CleaningControllerInterface
	GuestCheckin guestCheckinController.GuestCheckinControllerInterface
	Email        emailController.EmailControllerInterface
	ReferralSite referralSiteController.ReferralSiteControllerInterface
	Calendar     calendarController.CalendarControllerInterface
	Dashboard    dashboardController.DashboardControllerInterface
	Admin        adminController.AdminControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		User:         userController.New(repos, services, config, db),
		Property:     propertyController.New(repos, services, config, db),
		Booking:      bookingController.New(repos, services, config, db),
		Cleaning:     cleaningController.New(repos, services, config, db),
		GuestCheckin: guestCheckinController.New(repos, services, config, db),
		Email:        emailController.New(repos, services, config, db),
		ReferralSite: referralSiteController.New(repos, services, config, db),
		Calendar:     calendarController.New(repos, services, config, db),
		Dashboard:    dashboardController.New(repos, services, config, db),
		Admin:        adminController.New(services),
	}
}
