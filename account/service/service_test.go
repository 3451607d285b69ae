package service

import (
	"context"
	"sync"
	"testing"

	"github.com/RagOfJoes/bloom/account"
	accountGorm "github.com/RagOfJoes/bloom/account/repository/gorm"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestAccountServiceAssignTypeConcurrently(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	testService := NewAccountService(config.Default().Credential, persistence.NewTransactor(db), accountGorm.NewGormAccountRepository(db))

	acc := &account.Account{
		Email:        "ivy@bloom.shop",
		Username:     "ivy",
		PasswordHash: "hash",
	}
	require.NoError(t, persistence.NewRepository[account.Account](db).Create(ctx, acc))
	_, err := testService.CreateType(ctx, account.CreateAccountType{Title: "Seller", Key: "seller"})
	require.NoError(t, err)

	const callers = 16
	var (
		mu  sync.Mutex
		ids = map[uuid.UUID]struct{}{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			info, err := testService.AssignType(gctx, acc.ID, "Seller", nil)
			if err != nil {
				return err
			}
			mu.Lock()
			ids[info.ID] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, ids, 1)

	var infos, groups int64
	require.NoError(t, db.Model(&account.AccountTypeInfo{}).Where("account_id = ?", acc.ID).Count(&infos).Error)
	require.NoError(t, db.Model(&account.AccountTypeGroup{}).Where("account_id = ?", acc.ID).Count(&groups).Error)
	assert.Equal(t, int64(1), infos)
	assert.Equal(t, int64(1), groups)

	listed, err := testService.ListInfos(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "seller", listed[0].AccountType.Key)
}

func TestAccountServiceAssignTypeUnknown(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	testService := NewAccountService(config.Default().Credential, persistence.NewTransactor(db), accountGorm.NewGormAccountRepository(db))

	_, err := testService.AssignType(ctx, uuid.Must(uuid.NewV4()), "seller", nil)
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeNotFound, internal.CodeOf(err))
}
