package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/RagOfJoes/bloom/internal"
)

// State of a job run
type State string

const (
	Queued          State = "queued"
	Running         State = "running"
	Succeeded       State = "succeeded"
	FailedRetryable State = "failed_retryable"
	FailedTerminal  State = "failed_terminal"
)

// Terminal reports whether no further attempt will be made
func (s State) Terminal() bool {
	return s == Succeeded || s == FailedTerminal
}

// Errors
var (
	ErrUnknownJob     = errors.New("No handler registered for job")
	ErrInvalidMessage = errors.New("Invalid job message")
	ErrQueueClosed    = errors.New("Queue is closed")
)

// Job is the envelope that travels through a queue
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewJob encodes payload into a job addressed to queue
func NewJob(name string, payload interface{}, queue string) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to encode payload of %s", name)
	}
	id, err := internal.NewSortableID()
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:         id.String(),
		Name:       name,
		Queue:      queue,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Handler runs one attempt of a job
type Handler func(ctx context.Context, payload json.RawMessage) error

// Policy controls how a job name is retried
type Policy struct {
	// MaxRetries after the first attempt
	MaxRetries int
	// Delay between attempts
	Delay time.Duration
	// Timeout of a single attempt
	Timeout time.Duration
	// RetryOn selects the errors worth another attempt. Attempts that time
	// out are always retried
	RetryOn func(err error) bool
}

// Delivery is one message handed out by a queue. Exactly one of Ack or Nack
// must be called
type Delivery struct {
	Body []byte
	Ack  func() error
	Nack func(requeue bool) error
}

// Enqueuer publishes jobs
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload interface{}, queue string) error
}

// Queue is a broker jobs travel through
type Queue interface {
	Enqueuer
	// Consume streams deliveries of queue until ctx is done
	Consume(ctx context.Context, queue string) (<-chan Delivery, error)
	Close() error
}
