package service

import (
	"context"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/email"
	"github.com/RagOfJoes/bloom/flow"
	"github.com/RagOfJoes/bloom/flow/verification"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/token"
	"github.com/gofrs/uuid/v5"
)

type service struct {
	cfg    config.Configuration
	tx     persistence.Transactor
	as     account.Service
	ts     token.Service
	emails flow.Emails
}

func NewVerificationService(cfg config.Configuration, tx persistence.Transactor, as account.Service, ts token.Service, emails flow.Emails) verification.Service {
	return &service{
		cfg:    cfg,
		tx:     tx,
		as:     as,
		ts:     ts,
		emails: emails,
	}
}

func (s *service) New(ctx context.Context, accountID uuid.UUID) (*verification.Flow, error) {
	var newFlow *verification.Flow
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.as.Find(ctx, accountID.String())
		if err != nil {
			return err
		}
		if found.IsVerified {
			return internal.NewErrorf(internal.ErrorCodeConflict, "%v", verification.ErrAlreadyVerified)
		}

		issued, value, err := s.ts.Issue(ctx, token.Issue{
			AccountID: &found.ID,
			Purpose:   token.PurposeVerification,
			TTL:       s.cfg.Verification.Lifetime,
		})
		if err != nil {
			return err
		}
		s.emails.Send(ctx, email.Request{
			Template:  email.TemplateVerification,
			To:        []string{found.Email},
			Subject:   "Verify your email",
			MessageID: issued.ID.String(),
			Context: map[string]interface{}{
				"Name":            found.FullName(),
				"VerificationURL": flow.Link(s.cfg.Server.URL, s.cfg.Verification.URL, value),
			},
		})

		newFlow = &verification.Flow{
			Status:    flow.LinkPending,
			AccountID: found.ID,
			ExpiresAt: issued.DeletedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newFlow, nil
}

func (s *service) Verify(ctx context.Context, value string) (*verification.Flow, error) {
	var completed *verification.Flow
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.ts.Validate(ctx, value)
		if err != nil || found.Purpose != token.PurposeVerification || found.AccountID == nil {
			return internal.WrapErrorf(err, internal.ErrorCodeNotFound, "%v", flow.ErrInvalidExpiredFlow)
		}

		verified := true
		if _, err := s.as.Update(ctx, *found.AccountID, account.UpdateAccount{IsVerified: &verified}); err != nil {
			return err
		}
		// Links are single use
		if err := s.ts.Revoke(ctx, value, 0); err != nil {
			return err
		}

		completed = &verification.Flow{
			Status:    flow.Success,
			AccountID: *found.AccountID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}
