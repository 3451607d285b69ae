package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type registration struct {
	handler Handler
	policy  Policy
}

// Runner executes jobs under the policy registered for their name
type Runner struct {
	mu    sync.RWMutex
	jobs  map[string]registration
	log   zerolog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{
		jobs:  map[string]registration{},
		log:   log,
		sleep: sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Register binds a handler and its policy to name
func (r *Runner) Register(name string, p Policy, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[name] = registration{handler: h, policy: p}
}

// Handle tracks a submitted job
type Handle struct {
	done chan struct{}

	mu       sync.RWMutex
	state    State
	attempts int
	err      error
}

func newHandle() *Handle {
	return &Handle{
		done:  make(chan struct{}),
		state: Queued,
	}
}

func (h *Handle) set(state State, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	if err != nil || state == Succeeded {
		h.err = err
	}
	if state == Running {
		h.attempts++
	}
}

func (h *Handle) finish(state State, err error) {
	h.set(state, err)
	close(h.done)
}

// Wait blocks until the job reached a terminal state and returns it
func (h *Handle) Wait() State {
	<-h.done
	return h.State()
}

// Done is closed once the job is terminal
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Attempts made so far
func (h *Handle) Attempts() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.attempts
}

// Err is the error of the last failed attempt
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Submit starts running job in the background
func (r *Runner) Submit(ctx context.Context, job Job) *Handle {
	h := newHandle()
	r.mu.RLock()
	reg, ok := r.jobs[job.Name]
	r.mu.RUnlock()
	if !ok {
		r.log.Error().Str("job_id", job.ID).Str("job", job.Name).Msg("no handler registered")
		h.finish(FailedTerminal, fmt.Errorf("%w: %s", ErrUnknownJob, job.Name))
		return h
	}
	go r.run(ctx, job, reg, h)
	return h
}

func (r *Runner) run(ctx context.Context, job Job, reg registration, h *Handle) {
	p := reg.policy
	for {
		h.set(Running, nil)
		attempt := job.Attempt + h.Attempts()
		log := r.log.With().Str("job_id", job.ID).Str("job", job.Name).Int("attempt", attempt).Logger()
		log.Debug().Str("state", string(Running)).Msg("job started")

		start := time.Now()
		err := r.attempt(ctx, reg.handler, p.Timeout, job)
		if err == nil {
			log.Info().Str("state", string(Succeeded)).Dur("elapsed", time.Since(start)).Msg("job finished")
			h.finish(Succeeded, nil)
			return
		}

		retryable := errors.Is(err, context.DeadlineExceeded) || (p.RetryOn != nil && p.RetryOn(err))
		if !retryable || h.Attempts() > p.MaxRetries || ctx.Err() != nil {
			log.Error().Err(err).Str("state", string(FailedTerminal)).Msg("job failed")
			h.finish(FailedTerminal, err)
			return
		}
		log.Warn().Err(err).Str("state", string(FailedRetryable)).Dur("retry_in", p.Delay).Msg("job failed, retrying")
		h.set(FailedRetryable, err)

		if serr := r.sleep(ctx, p.Delay); serr != nil {
			log.Error().Err(serr).Str("state", string(FailedTerminal)).Msg("job abandoned")
			h.finish(FailedTerminal, err)
			return
		}
		h.set(Queued, nil)
	}
}

// attempt runs one try under its own timeout. A handler that ignores its
// context is abandoned once the timeout passed
func (r *Runner) attempt(ctx context.Context, handler Handler, timeout time.Duration, job Job) (err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result := make(chan error, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				result <- fmt.Errorf("job panicked: %v", recovered)
			}
		}()
		result <- handler(ctx, job.Payload)
	}()

	select {
	case err = <-result:
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
