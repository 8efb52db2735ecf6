package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jwalitptl/scheduling-api/pkg/logger"
)

// Job is a unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on cron specs. A run that is still in progress when
// its next tick fires is skipped, and panics are recovered and logged.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *logger.Logger
}

func NewScheduler(log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(log),
			cron.SkipIfStillRunning(log),
		)),
		ctx:    ctx,
		cancel: cancel,
		logger: log,
	}
}

// Add registers job under spec, e.g. "@every 5m" or "*/10 * * * *". Each
// run gets its own context bounded by timeout when timeout is positive.
func (s *Scheduler) Add(spec string, job Job, timeout time.Duration) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.RunNow(job, timeout)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, job.Name(), err)
	}
	s.logger.Info("job scheduled", "job", job.Name(), "schedule", spec)
	return nil
}

// RunNow runs job once on the calling goroutine.
func (s *Scheduler) RunNow(job Job, timeout time.Duration) {
	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error(err, "job failed", "job", job.Name(), "duration", time.Since(started).String())
		return
	}
	s.logger.Debug("job finished", "job", job.Name(), "duration", time.Since(started).String())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
