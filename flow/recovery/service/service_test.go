package service

import (
	"context"
	"testing"
	"time"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/email"
	"github.com/RagOfJoes/bloom/flow"
	"github.com/RagOfJoes/bloom/flow/recovery"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/logger"
	accountMocks "github.com/RagOfJoes/bloom/mocks/account"
	tokenMocks "github.com/RagOfJoes/bloom/mocks/token"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/token"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sentEmails struct {
	sent []email.Request
}

func (s *sentEmails) Send(_ context.Context, req email.Request) {
	s.sent = append(s.sent, req)
}

func newTestService(as account.Service, ts token.Service, emails flow.Emails) recovery.Service {
	cfg := config.Default()
	cfg.Server.URL = "https://api.bloom.shop"
	return NewRecoveryService(cfg, persistence.NopTransactor{}, logger.Nop(), as, ts, emails)
}

func TestRecoveryServiceNew(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV4())

	for _, test := range []struct {
		name  string
		found *account.Account
		err   error
		sent  bool
	}{
		{name: "Known", found: &account.Account{Email: "jane@bloom.shop", IsActive: true}, sent: true},
		{name: "Unknown", err: internal.NewErrorf(internal.ErrorCodeNotFound, "%v", account.ErrAccountDoesNotExist)},
		{name: "Suspended", found: &account.Account{Email: "jane@bloom.shop", IsActive: true, IsSuspended: true}},
	} {
		t.Run(test.name, func(t *testing.T) {
			as := &accountMocks.Service{}
			ts := &tokenMocks.Service{}
			emails := &sentEmails{}
			s := newTestService(as, ts, emails)

			if test.found != nil {
				test.found.ID = accountID
			}
			as.On("FindByEmail", ctx, "jane@bloom.shop").Return(test.found, test.err)
			ts.On("Issue", ctx, mock.MatchedBy(func(p token.Issue) bool {
				return p.Purpose == token.PurposeRecovery && p.TTL == 30*time.Minute
			})).Return(&token.Token{}, "reset-value", nil)

			require.NoError(t, s.New(ctx, recovery.IdentifierPayload{Email: "jane@bloom.shop"}))
			if !test.sent {
				assert.Empty(t, emails.sent)
				return
			}
			require.Len(t, emails.sent, 1)
			assert.Equal(t, email.TemplateRecovery, emails.sent[0].Template)
			assert.Equal(t, "https://api.bloom.shop/recovery/reset-value", emails.sent[0].Context["RecoveryURL"])
		})
	}

	t.Run("Invalid Email", func(t *testing.T) {
		s := newTestService(&accountMocks.Service{}, &tokenMocks.Service{}, &sentEmails{})
		err := s.New(ctx, recovery.IdentifierPayload{Email: "not-an-email"})
		assert.True(t, internal.IsCode(err, internal.ErrorCodeInvalidArgument))
	})
}

func TestRecoveryServiceSubmit(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV4())
	live := &token.Token{Purpose: token.PurposeRecovery, AccountID: &accountID}

	t.Run("Mismatched Passwords", func(t *testing.T) {
		s := newTestService(&accountMocks.Service{}, &tokenMocks.Service{}, &sentEmails{})
		_, err := s.Submit(ctx, "reset-value", recovery.SubmitPayload{Password: "correct horse battery", ConfirmPassword: "correct horse"})
		assert.True(t, internal.IsCode(err, internal.ErrorCodeInvalidArgument))
	})

	t.Run("Verification Link", func(t *testing.T) {
		ts := &tokenMocks.Service{}
		s := newTestService(&accountMocks.Service{}, ts, &sentEmails{})
		ts.On("Validate", ctx, "reset-value").Return(&token.Token{Purpose: token.PurposeVerification, AccountID: &accountID}, nil)

		_, err := s.Submit(ctx, "reset-value", recovery.SubmitPayload{Password: "correct horse battery", ConfirmPassword: "correct horse battery"})
		assert.True(t, internal.IsCode(err, internal.ErrorCodeNotFound))
	})

	t.Run("Success", func(t *testing.T) {
		as := &accountMocks.Service{}
		ts := &tokenMocks.Service{}
		s := newTestService(as, ts, &sentEmails{})
		ts.On("Validate", ctx, "reset-value").Return(live, nil)
		ts.On("Revoke", ctx, "reset-value", time.Duration(0)).Return(nil)
		as.On("ChangePassword", ctx, accountID, "correct horse battery").Return(&account.Account{}, nil)

		completed, err := s.Submit(ctx, "reset-value", recovery.SubmitPayload{Password: "correct horse battery", ConfirmPassword: "correct horse battery"})
		require.NoError(t, err)
		assert.Equal(t, flow.Success, completed.Status)
		as.AssertExpectations(t)
		ts.AssertExpectations(t)
	})
}
