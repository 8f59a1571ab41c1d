package jobs

import (
	"context"
	"time"

	"hostly/internal/database"
	"hostly/internal/repositories"
	"hostly/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// GUEST_TOKEN_RETENTION keeps expired links around long enough for hosts to
// see why a guest could not check in.
const GUEST_TOKEN_RETENTION = 30 * 24 * time.Hour

type GuestTokenCleanupJob struct {
	db             database.DB
	guestTokenRepo repositories.GuestTokenRepository
	log            logger.Logger
	schedule       services.Schedule
	now            func() time.Time
}

func NewGuestTokenCleanupJob(
	db database.DB,
	guestTokenRepo repositories.GuestTokenRepository,
	schedule services.Schedule,
) *GuestTokenCleanupJob {
	return &GuestTokenCleanupJob{
		db:             db,
		guestTokenRepo: guestTokenRepo,
		log:            logger.New("guestTokenCleanupJob"),
		schedule:       schedule,
		now:            time.Now,
	}
}

func (j *GuestTokenCleanupJob) Name() string {
	return "DailyGuestTokenCleanup"
}

func (j *GuestTokenCleanupJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	cutoff := j.now().UTC().Add(-GUEST_TOKEN_RETENTION)
	deleted, err := j.guestTokenRepo.DeleteExpiredBefore(ctx, j.db.SQL, cutoff)
	if err != nil {
		return log.Err("failed to purge expired guest tokens", err, "cutoff", cutoff)
	}

	log.Info("Expired guest tokens purged", "deleted", deleted, "cutoff", cutoff)
	return nil
}

func (j *GuestTokenCleanupJob) Schedule() services.Schedule {
	return j.schedule
}
