// Package scheduler runs the periodic background jobs of the server.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultTimeout bounds a single job run.
const DefaultTimeout = 2 * time.Minute

// Job is a named periodic task.
type Job struct {
	Name    string
	Spec    string // standard 5-field cron spec or descriptor such as "@every 5m"
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs jobs on their cron schedules. A run still in progress when
// its next slot arrives is skipped.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	stop context.CancelFunc
	jobs []string
}

// New creates a Scheduler for jobs. Jobs with an empty Spec are disabled.
// Returns an error when a spec cannot be parsed.
func New(jobs ...Job) (*Scheduler, error) {
	logger := cron.PrintfLogger(log.Default())
	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	ctx, stop := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, ctx: ctx, stop: stop}

	for _, job := range jobs {
		if job.Spec == "" {
			log.Printf("scheduler: %s disabled", job.Name)
			continue
		}
		if _, err := c.AddFunc(job.Spec, s.wrap(job)); err != nil {
			stop()
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", job.Spec, job.Name, err)
		}
		s.jobs = append(s.jobs, job.Name)
	}
	return s, nil
}

// Jobs lists the names of the enabled jobs.
func (s *Scheduler) Jobs() []string {
	return s.jobs
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs, cancels running ones and waits for them to return
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}

func (s *Scheduler) wrap(job Job) func() {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			log.Printf("scheduler: %s failed after %v: %v", job.Name, time.Since(start).Round(time.Millisecond), err)
			return
		}
		log.Printf("scheduler: %s done in %v", job.Name, time.Since(start).Round(time.Millisecond))
	}
}
