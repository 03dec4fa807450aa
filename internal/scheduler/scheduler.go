// Package scheduler optionally re-runs a collection cycle on a fixed
// cadence, adapting the teacher's gocron wiring to the collector
// orchestrator instead of a single fetch-and-store call.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/forecastlabs/weather-collector/internal/weather"
)

// RunFunc performs one full collection cycle.
type RunFunc func(ctx context.Context) error

// Scheduler wraps a gocron.Scheduler to invoke run on a fixed interval
// until Stop is called.
type Scheduler struct {
	inner    *gocron.Scheduler
	run      RunFunc
	interval time.Duration
	log      *logrus.Entry
}

// New constructs a Scheduler that calls run every interval.
func New(run RunFunc, interval time.Duration, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		inner:    gocron.NewScheduler(time.UTC),
		run:      run,
		interval: interval,
		log:      log,
	}
}

// Start schedules the recurring run and begins the async scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.inner.Every(s.interval).Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		if err := s.run(runCtx); err != nil {
			if _, ok := err.(*weather.CancelError); ok {
				s.log.Info("scheduled collection run cancelled")
				return
			}
			s.log.WithError(err).Error("scheduled collection run failed")
		}
	})
	if err != nil {
		return err
	}
	s.inner.StartAsync()
	return nil
}

// Stop halts the scheduler loop.
func (s *Scheduler) Stop() {
	s.inner.Stop()
}
