package service

import (
	"context"
	"sync"
	"testing"

	"github.com/RagOfJoes/bloom/account"
	accountGorm "github.com/RagOfJoes/bloom/account/repository/gorm"
	accountService "github.com/RagOfJoes/bloom/account/service"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/RagOfJoes/bloom/jobs/tasks"
	"github.com/RagOfJoes/bloom/notification"
	notificationGorm "github.com/RagOfJoes/bloom/notification/repository/gorm"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	jobs []string
}

func (r *recorder) Enqueue(ctx context.Context, name string, payload interface{}, queue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, name)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func newService(t *testing.T) (notification.Service, *recorder, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	db := sqlitetest.New(t)
	tx := persistence.NewTransactor(db)
	cfg := config.Default()

	as := accountService.NewAccountService(cfg.Credential, tx, accountGorm.NewGormAccountRepository(db))
	acc := &account.Account{
		Email:        "fern@bloom.shop",
		Username:     "fern",
		PasswordHash: "hash",
	}
	require.NoError(t, persistence.NewRepository[account.Account](db).Create(ctx, acc))
	_, err := as.CreateType(ctx, account.CreateAccountType{Title: "User", Key: "user"})
	require.NoError(t, err)
	info, err := as.AssignType(ctx, acc.ID, "User", nil)
	require.NoError(t, err)

	queue := &recorder{}
	emails := tasks.NewEmails(queue, cfg.Queue, logger.Nop())
	return NewNotificationService(tx, as, emails, notificationGorm.NewGormNotificationRepository(db)), queue, info.ID
}

func TestNotificationServicePreference(t *testing.T) {
	ctx := context.Background()
	testService, _, profile := newService(t)

	pref, err := testService.Preference(ctx, profile)
	require.NoError(t, err)
	assert.True(t, pref.InApp)
	assert.True(t, pref.Email)

	off := false
	pref, err = testService.UpdatePreference(ctx, profile, notification.UpdatePreference{Email: &off})
	require.NoError(t, err)
	assert.True(t, pref.InApp)
	assert.False(t, pref.Email)

	// Nothing set keeps the stored row
	again, err := testService.UpdatePreference(ctx, profile, notification.UpdatePreference{})
	require.NoError(t, err)
	assert.Equal(t, pref.ID, again.ID)
	assert.False(t, again.Email)

	_, err = testService.UpdatePreference(ctx, uuid.Must(uuid.NewV4()), notification.UpdatePreference{Email: &off})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeNotFound, internal.CodeOf(err))
}

func TestNotificationServiceNotifyFollowsPreference(t *testing.T) {
	on, off := true, false
	for _, test := range []struct {
		name   string
		pref   notification.UpdatePreference
		read   bool
		emails int
	}{
		{
			name:   "Defaults",
			emails: 1,
		},
		{
			name:   "Email Off",
			pref:   notification.UpdatePreference{Email: &off},
			emails: 0,
		},
		{
			name:   "In App Off",
			pref:   notification.UpdatePreference{InApp: &off, Email: &on},
			read:   true,
			emails: 1,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			testService, queue, profile := newService(t)
			_, err := testService.UpdatePreference(ctx, profile, test.pref)
			require.NoError(t, err)

			sent, err := testService.Notify(ctx, notification.Notify{
				AccountTypeInfoID: profile,
				Title:             "Order shipped",
				Message:           "Your calathea is on its way",
				Email:             true,
			})
			require.NoError(t, err)
			assert.Equal(t, test.read, sent.IsRead)
			assert.Equal(t, test.read, sent.ReadAt != nil)
			assert.Equal(t, test.emails, queue.count())

			unread, err := testService.CountUnread(ctx, profile)
			require.NoError(t, err)
			if test.read {
				assert.Equal(t, int64(0), unread)
			} else {
				assert.Equal(t, int64(1), unread)
			}
		})
	}
}

func TestNotificationServiceMarkRead(t *testing.T) {
	ctx := context.Background()
	testService, _, profile := newService(t)

	sent, err := testService.Notify(ctx, notification.Notify{
		AccountTypeInfoID: profile,
		Title:             "Welcome",
		Message:           "Thanks for joining",
	})
	require.NoError(t, err)

	_, err = testService.MarkRead(ctx, uuid.Must(uuid.NewV4()), sent.ID)
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeNotFound, internal.CodeOf(err))

	read, err := testService.MarkRead(ctx, profile, sent.ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)

	again, err := testService.MarkRead(ctx, profile, sent.ID)
	require.NoError(t, err)
	assert.True(t, read.ReadAt.Equal(*again.ReadAt))
}
