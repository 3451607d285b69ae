package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

// newTestRunner records the delays instead of sleeping
func newTestRunner() (*Runner, *[]time.Duration) {
	var (
		mu     sync.Mutex
		delays []time.Duration
	)
	r := NewRunner(logger.Nop())
	r.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		delays = append(delays, d)
		return ctx.Err()
	}
	return r, &delays
}

func failing(times int, err error) (Handler, *int32) {
	var calls int32
	return func(ctx context.Context, payload json.RawMessage) error {
		if atomic.AddInt32(&calls, 1) <= int32(times) {
			return err
		}
		return nil
	}, &calls
}

func TestRunnerRetries(t *testing.T) {
	policy := Policy{
		MaxRetries: 3,
		Delay:      5 * time.Second,
		Timeout:    time.Second,
		RetryOn: func(err error) bool {
			return errors.Is(err, errFlaky)
		},
	}

	for _, test := range []struct {
		name     string
		failures int
		err      error
		state    State
		attempts int
		delays   int
	}{
		{name: "First Try", failures: 0, err: errFlaky, state: Succeeded, attempts: 1},
		{name: "Two Failures Then Success", failures: 2, err: errFlaky, state: Succeeded, attempts: 3, delays: 2},
		{name: "Retries Exhausted", failures: 4, err: errFlaky, state: FailedTerminal, attempts: 4, delays: 3},
		{name: "Not Retryable", failures: 1, err: errors.New("bad payload"), state: FailedTerminal, attempts: 1},
	} {
		t.Run(test.name, func(t *testing.T) {
			r, delays := newTestRunner()
			handler, calls := failing(test.failures, test.err)
			r.Register("flaky", policy, handler)

			job, err := NewJob("flaky", map[string]string{"to": "a@bloom.shop"}, "default")
			require.NoError(t, err)

			h := r.Submit(context.Background(), job)
			state := h.Wait()
			assert.Equal(t, test.state, state)
			assert.True(t, state.Terminal())
			assert.Equal(t, test.attempts, h.Attempts())
			assert.Equal(t, int32(test.attempts), atomic.LoadInt32(calls))
			assert.Len(t, *delays, test.delays)
			for _, d := range *delays {
				assert.Equal(t, 5*time.Second, d)
			}
			if test.state == FailedTerminal {
				assert.ErrorIs(t, h.Err(), test.err)
			} else {
				assert.NoError(t, h.Err())
			}
		})
	}
}

func TestRunnerTimeout(t *testing.T) {
	r, delays := newTestRunner()
	var calls int32
	r.Register("slow", Policy{MaxRetries: 1, Timeout: 10 * time.Millisecond}, func(ctx context.Context, payload json.RawMessage) error {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return ctx.Err()
	})

	job, err := NewJob("slow", nil, "default")
	require.NoError(t, err)

	h := r.Submit(context.Background(), job)
	assert.Equal(t, FailedTerminal, h.Wait())
	assert.Equal(t, 2, h.Attempts())
	assert.Len(t, *delays, 1)
	assert.ErrorIs(t, h.Err(), context.DeadlineExceeded)
}

func TestRunnerUnknownJob(t *testing.T) {
	r, _ := newTestRunner()
	job, err := NewJob("missing", nil, "default")
	require.NoError(t, err)

	h := r.Submit(context.Background(), job)
	assert.Equal(t, FailedTerminal, h.Wait())
	assert.ErrorIs(t, h.Err(), ErrUnknownJob)
	assert.Zero(t, h.Attempts())
}

func TestRunnerPanic(t *testing.T) {
	r, _ := newTestRunner()
	r.Register("panics", Policy{MaxRetries: 3}, func(ctx context.Context, payload json.RawMessage) error {
		panic("boom")
	})
	job, err := NewJob("panics", nil, "default")
	require.NoError(t, err)

	h := r.Submit(context.Background(), job)
	assert.Equal(t, FailedTerminal, h.Wait())
	assert.Equal(t, 1, h.Attempts())
}
