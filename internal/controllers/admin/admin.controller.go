package adminController

import (
	"context"
	"errors"
	"time"

	"hostly/internal/services"
	"hostly/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

var ErrJobNotFound = types.NotFound("job not found")

type SchedulerStatusResponse struct {
	Running bool       `json:"running"`
	Jobs    []string   `json:"jobs"`
	NextRun *time.Time `json:"nextRun,omitempty"`
}

type TriggerJobResponse struct {
	Job       string `json:"job"`
	Triggered bool   `json:"triggered"`
}

type AdminControllerInterface interface {
	SchedulerStatus(ctx context.Context) *SchedulerStatusResponse
	TriggerJob(ctx context.Context, name string) (*TriggerJobResponse, error)
}

type AdminController struct {
	schedulerService *services.SchedulerService
	log              logger.Logger
}

func New(services services.Service) AdminControllerInterface {
	return &AdminController{
		schedulerService: services.Scheduler,
		log:              logger.New("adminController"),
	}
}

func (c *AdminController) SchedulerStatus(ctx context.Context) *SchedulerStatusResponse {
	return &SchedulerStatusResponse{
		Running: c.schedulerService.IsRunning(),
		Jobs:    c.schedulerService.JobNames(),
		NextRun: c.schedulerService.GetNextRunTime(),
	}
}

// TriggerJob starts a registered job in the background and returns
// immediately.
func (c *AdminController) TriggerJob(ctx context.Context, name string) (*TriggerJobResponse, error) {
	log := c.log.Function("TriggerJob")

	if name == "" {
		return nil, types.Invalidf("job name is required")
	}

	if err := c.schedulerService.TriggerJobByName(name); err != nil {
		if errors.Is(err, services.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, log.Err("failed to trigger job", err, "job", name)
	}

	log.Info("Job triggered manually", "job", name)
	return &TriggerJobResponse{Job: name, Triggered: true}, nil
}
