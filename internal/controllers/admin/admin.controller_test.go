package adminController

import (
	"context"
	"testing"
	"time"

	"hostly/internal/services"
	"hostly/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signalJob struct {
	ran chan struct{}
}

func (j *signalJob) Name() string               { return "signal" }
func (j *signalJob) Schedule() services.Schedule { return services.Daily }
func (j *signalJob) Execute(ctx context.Context) error {
	j.ran <- struct{}{}
	return nil
}

func newTestController(t *testing.T) (*AdminController, *signalJob) {
	t.Helper()

	scheduler := services.NewSchedulerService()
	job := &signalJob{ran: make(chan struct{}, 1)}
	require.NoError(t, scheduler.AddJob(job))

	controller := New(services.Service{Scheduler: scheduler}).(*AdminController)
	return controller, job
}

func TestAdminController_SchedulerStatus(t *testing.T) {
	controller, _ := newTestController(t)

	status := controller.SchedulerStatus(context.Background())
	assert.False(t, status.Running)
	assert.Equal(t, []string{"signal"}, status.Jobs)
	assert.Nil(t, status.NextRun)
}

func TestAdminController_TriggerJob(t *testing.T) {
	controller, job := newTestController(t)

	response, err := controller.TriggerJob(context.Background(), "signal")
	require.NoError(t, err)
	assert.True(t, response.Triggered)

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}

	_, err = controller.TriggerJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = controller.TriggerJob(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrValidation)
}
