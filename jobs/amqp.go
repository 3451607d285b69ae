package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// amqpQueue shares one connection between producers and consumers. Queues
// are durable and messages persistent
type amqpQueue struct {
	conn     *amqp.Connection
	prefetch int
	log      zerolog.Logger

	mu       sync.Mutex
	publish  *amqp.Channel
	declared map[string]struct{}
}

func NewAMQP(cfg config.Queue, log zerolog.Logger) (Queue, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to connect to broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to open broker channel")
	}
	return &amqpQueue{
		conn:     conn,
		prefetch: cfg.Prefetch,
		log:      log,
		publish:  ch,
		declared: map[string]struct{}{},
	}, nil
}

func (a *amqpQueue) declare(ch *amqp.Channel, queue string) error {
	if _, ok := a.declared[queue]; ok {
		return nil
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}
	a.declared[queue] = struct{}{}
	return nil
}

func (a *amqpQueue) Enqueue(ctx context.Context, name string, payload interface{}, queue string) error {
	job, err := NewJob(name, payload, queue)
	if err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to encode job %s", name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.declare(a.publish, queue); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to declare queue %s", queue)
	}
	err = a.publish.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Type:         job.Name,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to publish %s", name)
	}
	return nil
}

func (a *amqpQueue) Consume(ctx context.Context, queue string) (<-chan Delivery, error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to open broker channel")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to declare queue %s", queue)
	}
	if err := ch.Qos(a.prefetch, 0, false); err != nil {
		ch.Close()
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to set prefetch")
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to consume %s", queue)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					a.log.Warn().Str("queue", queue).Msg("broker closed the delivery channel")
					return
				}
				d := Delivery{
					Body: msg.Body,
					Ack:  func() error { return msg.Ack(false) },
					Nack: func(requeue bool) error { return msg.Nack(false, requeue) },
				}
				select {
				case out <- d:
				case <-ctx.Done():
					_ = msg.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func (a *amqpQueue) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.publish != nil {
		a.publish.Close()
	}
	return a.conn.Close()
}
