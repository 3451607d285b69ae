package tasks

import (
	"context"

	"github.com/RagOfJoes/bloom/email"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/jobs"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/rs/zerolog"
)

// Emails queues send_email jobs from the request path
type Emails struct {
	queue jobs.Enqueuer
	name  string
	log   zerolog.Logger
}

func NewEmails(queue jobs.Enqueuer, cfg config.Queue, log zerolog.Logger) *Emails {
	return &Emails{
		queue: queue,
		name:  cfg.Default,
		log:   log,
	}
}

// Send enqueues req once the transaction carried by ctx commits. Failing to
// enqueue is logged and never fails the caller
func (e *Emails) Send(ctx context.Context, req email.Request) {
	persistence.AfterCommit(ctx, func(ctx context.Context) {
		if err := e.queue.Enqueue(context.WithoutCancel(ctx), SendEmail, req, e.name); err != nil {
			e.log.Error().Err(err).Str("template", req.Template).Msg("failed to enqueue email")
			return
		}
		e.log.Debug().Str("template", req.Template).Int("recipients", len(req.To)).Msg("email enqueued")
	})
}
