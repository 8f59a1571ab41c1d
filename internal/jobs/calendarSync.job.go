package jobs

import (
	"context"

	"hostly/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type CalendarSyncJob struct {
	calendarSync *services.CalendarSyncService
	log          logger.Logger
	schedule     services.Schedule
}

func NewCalendarSyncJob(
	calendarSync *services.CalendarSyncService,
	schedule services.Schedule,
) *CalendarSyncJob {
	return &CalendarSyncJob{
		calendarSync: calendarSync,
		log:          logger.New("calendarSyncJob"),
		schedule:     schedule,
	}
}

func (j *CalendarSyncJob) Name() string {
	return "HourlyCalendarSync"
}

func (j *CalendarSyncJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	stats, err := j.calendarSync.SyncAllUsers(ctx)
	if err != nil {
		return log.Err("calendar sync run failed", err)
	}

	log.Info(
		"Calendar sync run completed",
		"imported", stats.Imported,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
		"errors", len(stats.Errors),
	)
	return nil
}

func (j *CalendarSyncJob) Schedule() services.Schedule {
	return j.schedule
}
