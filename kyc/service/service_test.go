package service

import (
	"context"
	"sync"
	"testing"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/kyc"
	kycGorm "github.com/RagOfJoes/bloom/kyc/repository/gorm"
	"github.com/RagOfJoes/bloom/notification"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notifier records Notify calls. Other methods are not used by the service
type notifier struct {
	notification.Service

	mu   sync.Mutex
	sent []notification.Notify
}

func (n *notifier) Notify(ctx context.Context, payload notification.Notify) (*notification.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, payload)
	return &notification.Notification{AccountTypeInfoID: payload.AccountTypeInfoID, Title: payload.Title, Message: payload.Message}, nil
}

func newService(t *testing.T) (kyc.Service, *notifier) {
	t.Helper()
	db := sqlitetest.New(t)
	registry := record.NewRegistry()
	registry.Register(record.KindAccountTypeInfo, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		return struct{}{}, nil
	})
	ns := &notifier{}
	testService := NewKYCService(persistence.NewTransactor(db), registry, ns, kycGorm.NewGormKYCRepository(db))

	_, err := testService.CreateDocumentType(context.Background(), kyc.CreateDocumentType{Key: "passport", Title: "Passport", IsRequired: true})
	require.NoError(t, err)
	return testService, ns
}

func TestKYCServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	testService, ns := newService(t)
	profile := uuid.Must(uuid.NewV4())
	reviewer := uuid.Must(uuid.NewV4())

	submitted, err := testService.Submit(ctx, kyc.Submit{AccountTypeInfoID: profile, DocumentType: "passport"})
	require.NoError(t, err)
	assert.Equal(t, kyc.Pending, submitted.Status)

	_, err = testService.Review(ctx, submitted.ID, kyc.Review{Status: kyc.Rejected, ReviewedBy: &reviewer})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))

	reason := "The scan is blurry"
	rejected, err := testService.Review(ctx, submitted.ID, kyc.Review{Status: kyc.Rejected, ReviewedBy: &reviewer, Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, kyc.Rejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, reason, *rejected.RejectionReason)
	require.Len(t, ns.sent, 1)
	assert.Equal(t, profile, ns.sent[0].AccountTypeInfoID)
	assert.Equal(t, "Passport rejected", ns.sent[0].Title)
	assert.True(t, ns.sent[0].Email)

	// Only pending documents can be reviewed
	_, err = testService.Review(ctx, submitted.ID, kyc.Review{Status: kyc.Approved})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))

	resubmitted, err := testService.Submit(ctx, kyc.Submit{AccountTypeInfoID: profile, DocumentType: "passport"})
	require.NoError(t, err)
	assert.Equal(t, submitted.ID, resubmitted.ID)
	assert.Equal(t, kyc.Pending, resubmitted.Status)
	assert.Nil(t, resubmitted.RejectionReason)
	assert.Nil(t, resubmitted.ReviewedAt)

	approved, err := testService.Review(ctx, submitted.ID, kyc.Review{Status: kyc.Approved, ReviewedBy: &reviewer})
	require.NoError(t, err)
	assert.Equal(t, kyc.Approved, approved.Status)
	assert.NotNil(t, approved.ReviewedAt)

	_, err = testService.Submit(ctx, kyc.Submit{AccountTypeInfoID: profile, DocumentType: "passport"})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))

	attempts, err := testService.Attempts(ctx, submitted.ID)
	require.NoError(t, err)
	statuses := make([]kyc.Status, 0, len(attempts))
	for _, a := range attempts {
		statuses = append(statuses, a.Status)
	}
	assert.Equal(t, []kyc.Status{kyc.Pending, kyc.Rejected, kyc.Pending, kyc.Approved}, statuses)

	documents, err := testService.List(ctx, profile)
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, "passport", documents[0].DocumentType.Key)
}

func TestKYCServiceSubmitUnknownType(t *testing.T) {
	testService, _ := newService(t)

	_, err := testService.Submit(context.Background(), kyc.Submit{AccountTypeInfoID: uuid.Must(uuid.NewV4()), DocumentType: "visa"})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))
}

func TestKYCServiceDuplicateDocumentType(t *testing.T) {
	testService, _ := newService(t)

	_, err := testService.CreateDocumentType(context.Background(), kyc.CreateDocumentType{Key: "passport", Title: "Passport"})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))
}
