package jobs

import (
	"context"
	"time"

	"convocore/internal/logger"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	capacity  *CapacityAlertService
}

func NewScheduler(capacity *CapacityAlertService) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		scheduler: scheduler,
		capacity:  capacity,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(s.capacity.Sweep, context.Background()),
		gocron.WithName("tenant-capacity-alerts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	logger.L().Info("starting background scheduler")
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	logger.L().Info("stopping background scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		logger.L().Error("scheduler shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
