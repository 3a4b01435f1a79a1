package scheduler

import (
	"github.com/Lova-clover/DevHistory/internal/config"
	"github.com/Lova-clover/DevHistory/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service triggers the recurring weekly build fan-out.
type Service struct {
	config     *config.Config
	dispatcher *jobs.Dispatcher
	cron       *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(cfg *config.Config, dispatcher *jobs.Dispatcher) *Service {
	return &Service{
		config:     cfg,
		dispatcher: dispatcher,
		cron:       cron.New(cron.WithSeconds()),
	}
}

// Start registers the weekly build schedule and begins the cron loop.
// The default runs Monday 04:00 UTC, summarizing the week that just ended.
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.BuildSchedule, func() {
		logrus.Info("Starting scheduled weekly build fan-out")
		handle := s.dispatcher.BuildAllWeeklySummaries()
		logrus.Infof("Scheduled weekly fan-out queued as job %s", handle.ID())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with build schedule %q", s.config.BuildSchedule)
	return nil
}

// Stop stops the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
