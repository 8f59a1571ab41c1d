package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name     string
	schedule Schedule
	ran      chan struct{}
}

func (j *stubJob) Name() string       { return j.name }
func (j *stubJob) Schedule() Schedule { return j.schedule }
func (j *stubJob) Execute(ctx context.Context) error {
	j.ran <- struct{}{}
	return nil
}

func TestSchedulerService_AddAndTrigger(t *testing.T) {
	scheduler := NewSchedulerService()
	job := &stubJob{name: "HourlyTest", schedule: Hourly, ran: make(chan struct{}, 1)}

	require.NoError(t, scheduler.AddJob(job))
	require.NoError(t, scheduler.AddJob(&stubJob{name: "DailyTest", schedule: Daily}))

	assert.Equal(t, 2, scheduler.GetJobCount())
	assert.Equal(t, []string{"HourlyTest", "DailyTest"}, scheduler.JobNames())

	require.NoError(t, scheduler.TriggerJobByName("HourlyTest"))
	select {
	case <-job.ran:
	case <-time.After(time.Second):
		t.Fatal("job was not triggered")
	}

	assert.ErrorIs(t, scheduler.TriggerJobByName("Missing"), ErrJobNotFound)
}

func TestSchedulerService_StartStop(t *testing.T) {
	scheduler := NewSchedulerService()

	require.NoError(t, scheduler.Start(context.Background()))
	assert.False(t, scheduler.IsRunning(), "scheduler without jobs stays idle")
	assert.Nil(t, scheduler.GetNextRunTime())

	require.NoError(t, scheduler.AddJob(&stubJob{name: "DailyTest", schedule: Daily}))
	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())
	assert.NotNil(t, scheduler.GetNextRunTime())

	require.NoError(t, scheduler.Stop(context.Background()))
	assert.False(t, scheduler.IsRunning())
}

func TestSchedulerService_RejectsUnknownSchedule(t *testing.T) {
	scheduler := NewSchedulerService()
	assert.Error(t, scheduler.AddJob(&stubJob{name: "Odd", schedule: Schedule(42)}))
	assert.Equal(t, 0, scheduler.GetJobCount())
}
