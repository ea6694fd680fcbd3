// Package scheduler runs the refresh orchestrators on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/pipeline"
	"github.com/go-co-op/gocron"
)

// Job pairs an orchestrator with its cron spec.
type Job struct {
	Spec         string
	Orchestrator pipeline.Orchestrator
}

// Scheduler triggers each job on its spec, in UTC, never overlapping runs of
// the same pipeline.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New registers jobs. It fails on the first invalid cron spec.
func New(jobs []Job, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, j := range jobs {
		o := j.Orchestrator
		_, err := s.scheduler.Cron(j.Spec).Tag(o.Name()).SingletonMode().Do(s.run, o)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %s %q: %w", o.Name(), j.Spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) run(o pipeline.Orchestrator) {
	if s.ctx.Err() != nil {
		return
	}
	m := o.Run(s.ctx)
	s.logger.Debug("scheduled run done", "pipeline", o.Name(), "run_id", m.RunID, "status", m.Status)
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	for _, j := range s.scheduler.Jobs() {
		s.logger.Info("job scheduled", "pipeline", j.Tags(), "next_run", j.NextRun())
	}
	s.scheduler.StartAsync()
}

// RunNow triggers one pipeline immediately, outside its schedule. The run
// happens in the background; a name with no scheduled job is ErrNotFound.
func (s *Scheduler) RunNow(name string) error {
	err := s.scheduler.RunByTag(name)
	if errors.Is(err, gocron.ErrJobNotFoundWithTag) {
		return fmt.Errorf("pipeline %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	s.logger.Info("manual run triggered", "pipeline", name)
	return nil
}

// Stop cancels in-flight runs and waits for the scheduler to stop.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}
