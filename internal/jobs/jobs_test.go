package jobs

import (
	"context"
	"testing"
	"time"

	"hostly/config"
	"hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAllJobs(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repos := repositories.New(db)

	tests := []struct {
		name     string
		enabled  bool
		wantJobs []string
	}{
		{name: "disabled", enabled: false, wantJobs: []string{}},
		{
			name:     "enabled",
			enabled:  true,
			wantJobs: []string{"HourlyCalendarSync", "DailyGuestTokenCleanup"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{SchedulerEnabled: tt.enabled}
			svc, err := services.New(db, cfg, nil)
			require.NoError(t, err)

			scheduler := services.NewSchedulerService()
			require.NoError(t, RegisterAllJobs(scheduler, cfg, svc, repos, db))
			assert.Equal(t, tt.wantJobs, scheduler.JobNames())
		})
	}
}

func TestCalendarSyncJob_ExecuteWithoutSources(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc, err := services.New(db, config.Config{}, nil)
	require.NoError(t, err)

	job := NewCalendarSyncJob(svc.CalendarSync, Hourly)
	assert.Equal(t, "HourlyCalendarSync", job.Name())
	assert.Equal(t, Hourly, job.Schedule())
	assert.NoError(t, job.Execute(context.Background()))
}

func TestGuestTokenCleanupJob_Execute(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repos := repositories.New(db)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tokens := map[string]time.Time{
		"stale":  now.Add(-40 * 24 * time.Hour),
		"recent": now.Add(-2 * 24 * time.Hour),
		"live":   now.Add(24 * time.Hour),
	}
	for hash, expiresAt := range tokens {
		require.NoError(t, db.SQL.Create(&models.GuestCheckinToken{
			UserID:    uuid.New(),
			BookingID: uuid.New(),
			TokenHash: hash,
			ExpiresAt: expiresAt,
		}).Error)
	}

	job := NewGuestTokenCleanupJob(db, repos.GuestToken, Daily)
	job.now = func() time.Time { return now }
	require.NoError(t, job.Execute(ctx))

	var remaining []string
	require.NoError(t, db.SQL.Model(&models.GuestCheckinToken{}).
		Order("token_hash ASC").
		Pluck("token_hash", &remaining).Error)
	assert.Equal(t, []string{"live", "recent"}, remaining)
}
