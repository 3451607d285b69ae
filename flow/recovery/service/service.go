package service

import (
	"context"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/email"
	"github.com/RagOfJoes/bloom/flow"
	"github.com/RagOfJoes/bloom/flow/recovery"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/token"
	"github.com/rs/zerolog"
)

type service struct {
	cfg    config.Configuration
	tx     persistence.Transactor
	log    zerolog.Logger
	as     account.Service
	ts     token.Service
	emails flow.Emails
}

func NewRecoveryService(cfg config.Configuration, tx persistence.Transactor, log zerolog.Logger, as account.Service, ts token.Service, emails flow.Emails) recovery.Service {
	return &service{
		cfg:    cfg,
		tx:     tx,
		log:    log,
		as:     as,
		ts:     ts,
		emails: emails,
	}
}

func (s *service) New(ctx context.Context, payload recovery.IdentifierPayload) error {
	if err := validate.Check(payload); err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.as.FindByEmail(ctx, payload.Email)
		if persistence.IsNotFound(err) {
			s.log.Debug().Msg("recovery requested for an unknown email")
			return nil
		}
		if err != nil {
			return err
		}
		if !found.IsActive || found.IsSuspended {
			s.log.Debug().Str("account_id", found.ID.String()).Msg("recovery requested for an inactive account")
			return nil
		}

		issued, value, err := s.ts.Issue(ctx, token.Issue{
			AccountID: &found.ID,
			Purpose:   token.PurposeRecovery,
			TTL:       s.cfg.Recovery.Lifetime,
		})
		if err != nil {
			return err
		}
		s.emails.Send(ctx, email.Request{
			Template:  email.TemplateRecovery,
			To:        []string{found.Email},
			Subject:   "Reset your password",
			MessageID: issued.ID.String(),
			Context: map[string]interface{}{
				"Name":        found.FullName(),
				"RecoveryURL": flow.Link(s.cfg.Server.URL, s.cfg.Recovery.URL, value),
			},
		})
		return nil
	})
}

func (s *service) Find(ctx context.Context, value string) (*recovery.Flow, error) {
	found, err := s.valid(ctx, value)
	if err != nil {
		return nil, err
	}
	return &recovery.Flow{
		Status:    flow.LinkPending,
		ExpiresAt: found.DeletedAt,
	}, nil
}

func (s *service) Submit(ctx context.Context, value string, payload recovery.SubmitPayload) (*recovery.Flow, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.valid(ctx, value)
		if err != nil {
			return err
		}
		if _, err := s.as.ChangePassword(ctx, *found.AccountID, payload.Password); err != nil {
			return err
		}
		return s.ts.Revoke(ctx, value, 0)
	})
	if err != nil {
		return nil, err
	}
	return &recovery.Flow{Status: flow.Success}, nil
}

// valid returns the recovery token behind value
func (s *service) valid(ctx context.Context, value string) (*token.Token, error) {
	found, err := s.ts.Validate(ctx, value)
	if err != nil || found.Purpose != token.PurposeRecovery || found.AccountID == nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "%v", flow.ErrInvalidExpiredFlow)
	}
	return found, nil
}
