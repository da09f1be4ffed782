// Package scheduler runs a job on a cron schedule until its context ends.
// Runs never overlap: a tick that fires while the previous run is still going
// is skipped.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is the scheduled work. ctx is the context passed to Run.
type Job func(ctx context.Context)

// Scheduler wraps a cron.Cron configured for serialized runs.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New returns a Scheduler that parses standard five-field specs and
// descriptors such as @daily or @every 1h.
func New(log zerolog.Logger, opts ...cron.Option) *Scheduler {
	cl := cronLogger{log: log}
	base := []cron.Option{
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	}
	return &Scheduler{
		cron: cron.New(append(base, opts...)...),
		log:  log,
	}
}

// Run registers job under spec, starts the scheduler and blocks until ctx is
// done. It then waits for a running job to return.
func (s *Scheduler) Run(ctx context.Context, spec string, job Job) error {
	id, err := s.cron.AddFunc(spec, func() { job(ctx) })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.log.Info().Str("cron", spec).Time("next", s.cron.Entry(id).Next).Msg("scheduler started")

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.log.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger. cron's routine chatter goes to
// debug.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
