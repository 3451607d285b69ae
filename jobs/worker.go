package jobs

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// Worker consumes queues and runs what it receives
type Worker struct {
	queue       Queue
	runner      *Runner
	queues      []string
	concurrency int
	log         zerolog.Logger
}

func NewWorker(queue Queue, runner *Runner, concurrency int, log zerolog.Logger, queues ...string) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		queue:       queue,
		runner:      runner,
		queues:      queues,
		concurrency: concurrency,
		log:         log,
	}
}

// Run blocks until ctx is done or a queue can't be consumed. At most
// concurrency jobs run at once
func (w *Worker) Run(ctx context.Context) error {
	consumers, ctx := errgroup.WithContext(ctx)
	pool := &errgroup.Group{}
	pool.SetLimit(w.concurrency)

	for _, name := range w.queues {
		deliveries, err := w.queue.Consume(ctx, name)
		if err != nil {
			return err
		}
		queue := name
		consumers.Go(func() error {
			w.log.Info().Str("queue", queue).Int("concurrency", w.concurrency).Msg("consuming")
			for d := range deliveries {
				d := d
				pool.Go(func() error {
					w.handle(ctx, d)
					return nil
				})
			}
			return nil
		})
	}

	err := consumers.Wait()
	_ = pool.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// handle runs one delivery to a terminal state and settles it. Deliveries
// interrupted by shutdown go back to the queue
func (w *Worker) handle(ctx context.Context, d Delivery) {
	header := gjson.GetManyBytes(d.Body, "id", "name")
	id, name := header[0].String(), header[1].String()
	if name == "" {
		w.log.Error().Str("body", string(d.Body)).Msg("dropping message without job name")
		w.settle(d, false, false)
		return
	}

	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.log.Error().Err(err).Str("job_id", id).Str("job", name).Msg("dropping undecodable job")
		w.settle(d, false, false)
		return
	}

	h := w.runner.Submit(ctx, job)
	state := h.Wait()
	if ctx.Err() != nil && state != Succeeded {
		w.settle(d, false, true)
		return
	}
	w.settle(d, true, false)
}

func (w *Worker) settle(d Delivery, ack bool, requeue bool) {
	var err error
	if ack {
		err = d.Ack()
	} else {
		err = d.Nack(requeue)
	}
	if err != nil {
		w.log.Warn().Err(err).Msg("failed to settle delivery")
	}
}
