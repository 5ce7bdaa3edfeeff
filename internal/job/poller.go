// Package job submits implementation jobs to the backend, polls them to
// completion, and delivers the finished change as a pull request.
package job

import (
	"context"
	"time"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/log"
)

const (
	// DefaultInterval is the pause between progress checks.
	DefaultInterval = 2 * time.Second

	// DefaultMaxAttempts caps the poll loop at six minutes of waiting.
	DefaultMaxAttempts = 180
)

// Update is one observation of a running job, delivered to the progress
// callback on every poll tick. When a progress fetch fails, Err is set and
// Progress carries the last snapshot that succeeded.
type Update struct {
	Attempt  int
	Progress api.JobProgress
	Err      error
}

// ProgressFunc receives poll updates. It runs on the polling goroutine, so
// it must not block for long.
type ProgressFunc func(Update)

// Poller drives a job's progress endpoint until the job reaches a terminal
// status or the attempt ceiling is hit.
type Poller struct {
	client      *api.Client
	logger      *log.Logger
	interval    time.Duration
	maxAttempts int
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the pause between progress checks.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts overrides the poll ceiling.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPoller creates a poller with the default cadence.
func NewPoller(client *api.Client, opts ...Option) *Poller {
	p := &Poller{
		client:      client,
		logger:      log.DefaultLogger(),
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll checks the job's progress once per interval until the status turns
// terminal. Individual fetch failures are tolerated: they are reported to
// onProgress and the loop keeps going, so a transient network blip does not
// abandon a job the backend is still running. The attempt counter advances
// on every tick, failed fetches included, so the ceiling bounds wall-clock
// time rather than successful observations.
func (p *Poller) Poll(ctx context.Context, jobID string, onProgress ProgressFunc) (api.JobProgress, error) {
	var last api.JobProgress

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return last, errors.Wrap(errors.KindTimeout, errors.ErrCodePollCeiling,
				"polling cancelled", ctx.Err())
		case <-time.After(p.interval):
		}

		progress, err := p.client.GetJobProgress(ctx, jobID)
		if err != nil {
			p.logger.WithError(err).Warn("progress check failed",
				"job_id", jobID, "attempt", attempt)
			if onProgress != nil {
				onProgress(Update{Attempt: attempt, Progress: last, Err: err})
			}
			continue
		}

		last = *progress
		if onProgress != nil {
			onProgress(Update{Attempt: attempt, Progress: last})
		}
		if last.Terminal() {
			return last, nil
		}
	}

	return last, errors.NewPollTimeoutError(p.maxAttempts)
}
