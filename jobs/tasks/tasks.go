// Package tasks holds the bodies of the background jobs and the policies
// they run under
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/RagOfJoes/bloom/attachment"
	"github.com/RagOfJoes/bloom/email"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/jobs"
	"github.com/RagOfJoes/bloom/storage"
	"github.com/RagOfJoes/bloom/token"
	"github.com/rs/zerolog"
)

// Job names
const (
	SendEmail               = "send_email"
	DeleteMarkedAttachments = "delete_marked_attachments"
	CleanupTokens           = "cleanup_tokens"
)

// sweepBatch caps how many attachments one delete_marked_attachments run
// removes
const sweepBatch = 100

// Dependencies are the services job bodies call into
type Dependencies struct {
	Mailer      email.Mailer
	Attachments attachment.Service
	Tokens      token.Service
}

// Register binds every job body to r
func Register(cfg config.Configuration, r *jobs.Runner, deps Dependencies, log zerolog.Logger) {
	base := jobs.Policy{
		MaxRetries: cfg.Jobs.MaxRetries,
		Delay:      cfg.Jobs.RetryDelay,
		Timeout:    cfg.Jobs.Timeout,
	}

	sendEmail := base
	sendEmail.RetryOn = email.IsError
	r.Register(SendEmail, sendEmail, sendEmailJob(deps.Mailer, log))

	sweep := base
	sweep.RetryOn = func(err error) bool {
		var serr *storage.Error
		if errors.As(err, &serr) {
			return true
		}
		return internal.IsCode(err, internal.ErrorCodeInternal) || internal.IsCode(err, internal.ErrorCodeUnavailable)
	}
	r.Register(DeleteMarkedAttachments, sweep, deleteMarkedAttachmentsJob(deps.Attachments, log))

	cleanup := base
	cleanup.RetryOn = func(err error) bool {
		return internal.IsCode(err, internal.ErrorCodeInternal)
	}
	r.Register(CleanupTokens, cleanup, cleanupTokensJob(deps.Tokens, time.Now))
}

// Schedules returns the recurring jobs enqueued by the scheduler
func Schedules(cfg config.Configuration) []jobs.Schedule {
	return []jobs.Schedule{
		{Name: DeleteMarkedAttachments, Every: cfg.Jobs.AttachmentCleanupInterval, Queue: cfg.Queue.Recurring},
		{Name: CleanupTokens, Every: cfg.Jobs.TokenCleanupInterval, Queue: cfg.Queue.Recurring},
	}
}

func sendEmailJob(mailer email.Mailer, log zerolog.Logger) jobs.Handler {
	return func(ctx context.Context, payload json.RawMessage) error {
		var req email.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "%v", jobs.ErrInvalidMessage)
		}
		res, err := mailer.Send(ctx, req)
		if err != nil {
			return err
		}
		log.Info().
			Str("template", req.Template).
			Str("provider", res.Provider).
			Str("provider_message_id", res.MessageID).
			Msg("email sent")
		return nil
	}
}

func deleteMarkedAttachmentsJob(as attachment.Service, log zerolog.Logger) jobs.Handler {
	return func(ctx context.Context, _ json.RawMessage) error {
		removed, err := as.DeleteMarked(ctx, sweepBatch)
		if removed > 0 {
			log.Info().Int("removed", removed).Msg("marked attachments deleted")
		}
		return err
	}
}

func cleanupTokensJob(ts token.Service, now func() time.Time) jobs.Handler {
	return func(ctx context.Context, _ json.RawMessage) error {
		_, err := ts.Cleanup(ctx, now().UTC())
		return err
	}
}
