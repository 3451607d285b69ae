package service

import (
	"context"
	"testing"
	"time"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/email"
	"github.com/RagOfJoes/bloom/flow"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
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

func testConfig() config.Configuration {
	cfg := config.Default()
	cfg.Server.URL = "https://api.bloom.shop"
	return cfg
}

func TestVerificationServiceNew(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV4())
	expiresAt := time.Now().Add(time.Hour)

	t.Run("Unverified", func(t *testing.T) {
		as := &accountMocks.Service{}
		ts := &tokenMocks.Service{}
		emails := &sentEmails{}
		s := NewVerificationService(testConfig(), persistence.NopTransactor{}, as, ts, emails)

		found := &account.Account{Email: "jane@bloom.shop", FirstName: "Jane"}
		found.ID = accountID
		as.On("Find", ctx, accountID.String()).Return(found, nil)
		ts.On("Issue", ctx, mock.MatchedBy(func(p token.Issue) bool {
			return p.Purpose == token.PurposeVerification && *p.AccountID == accountID && p.TTL == 24*time.Hour
		})).Return(&token.Token{DeletedAt: &expiresAt}, "link-value", nil)

		newFlow, err := s.New(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, flow.LinkPending, newFlow.Status)
		assert.Equal(t, &expiresAt, newFlow.ExpiresAt)
		require.Len(t, emails.sent, 1)
		assert.Equal(t, email.TemplateVerification, emails.sent[0].Template)
		assert.Equal(t, []string{"jane@bloom.shop"}, emails.sent[0].To)
		assert.Equal(t, "https://api.bloom.shop/verification/link-value", emails.sent[0].Context["VerificationURL"])
	})

	t.Run("Already Verified", func(t *testing.T) {
		as := &accountMocks.Service{}
		ts := &tokenMocks.Service{}
		emails := &sentEmails{}
		s := NewVerificationService(testConfig(), persistence.NopTransactor{}, as, ts, emails)

		found := &account.Account{Email: "jane@bloom.shop", IsVerified: true}
		as.On("Find", ctx, accountID.String()).Return(found, nil)

		_, err := s.New(ctx, accountID)
		assert.True(t, internal.IsCode(err, internal.ErrorCodeConflict))
		assert.Empty(t, emails.sent)
		ts.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
	})
}

func TestVerificationServiceVerify(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV4())

	for _, test := range []struct {
		name  string
		found *token.Token
		err   error
		valid bool
	}{
		{name: "Valid", found: &token.Token{Purpose: token.PurposeVerification, AccountID: &accountID}, valid: true},
		{name: "Wrong Purpose", found: &token.Token{Purpose: token.PurposeRecovery, AccountID: &accountID}},
		{name: "No Account", found: &token.Token{Purpose: token.PurposeVerification}},
		{name: "Expired", err: internal.NewErrorf(internal.ErrorCodeUnauthorized, "%v", token.ErrTokenInvalid)},
	} {
		t.Run(test.name, func(t *testing.T) {
			as := &accountMocks.Service{}
			ts := &tokenMocks.Service{}
			s := NewVerificationService(testConfig(), persistence.NopTransactor{}, as, ts, &sentEmails{})

			ts.On("Validate", ctx, "link-value").Return(test.found, test.err)
			as.On("Update", ctx, accountID, mock.MatchedBy(func(p account.UpdateAccount) bool {
				return p.IsVerified != nil && *p.IsVerified
			})).Return(&account.Account{IsVerified: true}, nil)
			ts.On("Revoke", ctx, "link-value", time.Duration(0)).Return(nil)

			completed, err := s.Verify(ctx, "link-value")
			if !test.valid {
				assert.True(t, internal.IsCode(err, internal.ErrorCodeNotFound))
				as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, flow.Success, completed.Status)
			assert.Equal(t, accountID, completed.AccountID)
			ts.AssertCalled(t, "Revoke", ctx, "link-value", time.Duration(0))
		})
	}
}
