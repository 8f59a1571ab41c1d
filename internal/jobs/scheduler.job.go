package jobs

import (
	"hostly/config"
	"hostly/internal/database"
	"hostly/internal/repositories"
	"hostly/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	Daily  = services.Daily
	Hourly = services.Hourly
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	services services.Service,
	repos repositories.Repository,
	db database.DB,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	calendarSyncJob := NewCalendarSyncJob(services.CalendarSync, Hourly)
	if err := schedulerService.AddJob(calendarSyncJob); err != nil {
		return log.Err("failed to register calendar sync job", err)
	}
	log.Info("Registered calendar sync job", "schedule", "hourly")

	guestTokenCleanupJob := NewGuestTokenCleanupJob(db, repos.GuestToken, Daily)
	if err := schedulerService.AddJob(guestTokenCleanupJob); err != nil {
		return log.Err("failed to register guest token cleanup job", err)
	}
	log.Info("Registered guest token cleanup job", "schedule", "daily")

	return nil
}
