package jobs

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/RagOfJoes/bloom/internal"
)

// memoryQueue keeps jobs in process. Used in development and tests
type memoryQueue struct {
	mu     sync.Mutex
	closed bool
	queues map[string]chan []byte
	size   int
}

// NewMemory returns a queue that buffers up to size messages per queue
func NewMemory(size int) Queue {
	if size <= 0 {
		size = 1024
	}
	return &memoryQueue{
		queues: map[string]chan []byte{},
		size:   size,
	}
}

func (m *memoryQueue) queue(name string) (chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, internal.WrapErrorf(ErrQueueClosed, internal.ErrorCodeUnavailable, "%v", ErrQueueClosed)
	}
	q, ok := m.queues[name]
	if !ok {
		q = make(chan []byte, m.size)
		m.queues[name] = q
	}
	return q, nil
}

func (m *memoryQueue) Enqueue(ctx context.Context, name string, payload interface{}, queue string) error {
	job, err := NewJob(name, payload, queue)
	if err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to encode job %s", name)
	}
	return m.push(ctx, queue, body)
}

func (m *memoryQueue) push(ctx context.Context, queue string, body []byte) error {
	q, err := m.queue(queue)
	if err != nil {
		return err
	}
	select {
	case q <- body:
		return nil
	case <-ctx.Done():
		return internal.WrapErrorf(ctx.Err(), internal.ErrorCodeUnavailable, "Failed to enqueue on %s", queue)
	}
}

func (m *memoryQueue) Consume(ctx context.Context, queue string) (<-chan Delivery, error) {
	q, err := m.queue(queue)
	if err != nil {
		return nil, err
	}
	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case body := <-q:
				d := Delivery{
					Body: body,
					Ack:  func() error { return nil },
					Nack: func(requeue bool) error {
						if !requeue {
							return nil
						}
						return m.push(context.Background(), queue, body)
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					// Hand the message back so it isn't lost
					_ = m.push(context.Background(), queue, body)
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *memoryQueue) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
