package portrait

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pawtraits/server/internal/domain"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxWait      = 100 * time.Second
)

// Runner drives the asynchronous job lifecycle of a generation backend:
// submit once, poll at a fixed interval until a terminal state, give up after
// a wall-clock ceiling. A timed-out job is abandoned, never canceled.
type Runner struct {
	backend  Backend
	interval time.Duration
	maxWait  time.Duration
	logger   zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner builds a runner around the backend. Non-positive interval or
// ceiling fall back to the defaults.
func NewRunner(backend Backend, interval, maxWait time.Duration, logger zerolog.Logger) *Runner {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	return &Runner{
		backend:  backend,
		interval: interval,
		maxWait:  maxWait,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Run submits the request and blocks until raw image bytes or a typed
// failure. If the submission response already reports a terminal state no
// poll is issued. The ceiling is measured in elapsed wall-clock time, so the
// behavior is independent of interval tuning.
func (r *Runner) Run(ctx context.Context, req SubmitRequest) ([]byte, error) {
	job, err := r.backend.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, &domain.UpstreamJobFailedError{Status: domain.JobStatusFailed, Message: "backend returned no job"}
	}
	r.logger.Debug().
		Str("backend", r.backend.Name()).
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Msg("generation job submitted")

	start := r.now()
	polls := 0
	for !job.Status.Terminal() {
		if elapsed := r.now().Sub(start); elapsed >= r.maxWait {
			r.logger.Warn().
				Str("job_id", job.ID).
				Int("polls", polls).
				Dur("elapsed", elapsed).
				Msg("generation job abandoned after wait ceiling")
			return nil, &domain.UpstreamTimeoutError{Elapsed: elapsed}
		}
		if err := r.sleep(ctx, r.interval); err != nil {
			return nil, err
		}
		job, err = r.backend.Poll(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		if job == nil {
			return nil, &domain.UpstreamJobFailedError{Status: domain.JobStatusFailed, Message: "backend returned no job"}
		}
		polls++
	}

	switch job.Status {
	case domain.JobStatusFailed, domain.JobStatusCanceled:
		return nil, &domain.UpstreamJobFailedError{Status: job.Status, Message: job.Error}
	}
	if !job.HasOutput() {
		// A succeeded job must reference its output; anything else is a
		// contract violation by the backend.
		return nil, &domain.UpstreamJobFailedError{Status: job.Status, Message: "no output reference on succeeded job"}
	}
	if len(job.Output) > 0 {
		return job.Output, nil
	}
	return r.backend.FetchOutput(ctx, job)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
