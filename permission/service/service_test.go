package service

import (
	"context"
	"testing"
	"time"

	"github.com/RagOfJoes/bloom/account"
	accountGorm "github.com/RagOfJoes/bloom/account/repository/gorm"
	accountService "github.com/RagOfJoes/bloom/account/service"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/RagOfJoes/bloom/permission"
	permissionGorm "github.com/RagOfJoes/bloom/permission/repository/gorm"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newService returns a permission service and a profile of typeKey
func newService(t *testing.T, typeKey string) (*service, *account.AccountTypeInfo) {
	t.Helper()
	ctx := context.Background()
	db := sqlitetest.New(t)
	tx := persistence.NewTransactor(db)
	as := accountService.NewAccountService(config.Default().Credential, tx, accountGorm.NewGormAccountRepository(db))

	acc := &account.Account{
		Email:        typeKey + "@bloom.shop",
		Username:     typeKey,
		PasswordHash: "hash",
	}
	require.NoError(t, persistence.NewRepository[account.Account](db).Create(ctx, acc))
	_, err := as.CreateType(ctx, account.CreateAccountType{Title: typeKey, Key: typeKey})
	require.NoError(t, err)
	info, err := as.AssignType(ctx, acc.ID, typeKey, nil)
	require.NoError(t, err)

	return NewPermissionService(tx, logger.Nop(), as, permissionGorm.NewGormPermissionRepository(db)).(*service), info
}

func TestPermissionServiceAssignDefaults(t *testing.T) {
	ctx := context.Background()
	testService, info := newService(t, "business")

	granted, err := testService.AssignDefaults(ctx, info.ID, nil)
	require.NoError(t, err)
	assert.Len(t, granted, len(permission.Defaults["business"]))

	// A second call neither duplicates nor fails
	again, err := testService.AssignDefaults(ctx, info.ID, nil)
	require.NoError(t, err)
	assert.Len(t, again, len(granted))

	listed, err := testService.List(ctx, info.ID)
	require.NoError(t, err)
	assert.Len(t, listed, len(granted))

	allowed, err := testService.Can(ctx, info.ID, "orders:read", "")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = testService.Can(ctx, info.ID, "permissions:manage", "")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPermissionServiceAssignDefaultsKeepsRevocations(t *testing.T) {
	ctx := context.Background()
	testService, info := newService(t, "user")

	granted, err := testService.AssignDefaults(ctx, info.ID, nil)
	require.NoError(t, err)

	var carts uuid.UUID
	for _, g := range granted {
		if g.Permission.Scope() == "carts:manage" {
			carts = g.PermissionID
		}
	}
	require.NotEqual(t, uuid.Nil, carts)

	revoked, err := testService.Revoke(ctx, info.ID, carts, "")
	require.NoError(t, err)
	assert.True(t, revoked)

	again, err := testService.AssignDefaults(ctx, info.ID, nil)
	require.NoError(t, err)
	assert.Len(t, again, len(granted)-1)

	allowed, err := testService.Can(ctx, info.ID, "carts:write", "")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPermissionServiceAssignDefaultsUnknownType(t *testing.T) {
	testService, info := newService(t, "courier")

	_, err := testService.AssignDefaults(context.Background(), info.ID, nil)
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))
}

func TestPermissionServiceCan(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	for _, test := range []struct {
		name       string
		setup      func(t *testing.T, s *service, info uuid.UUID)
		scope      string
		resourceID string
		allowed    bool
	}{
		{
			name:  "No Grant",
			setup: func(t *testing.T, s *service, info uuid.UUID) {},
			scope: "products:read",
		},
		{
			name: "Manage Covers Every Action",
			setup: func(t *testing.T, s *service, info uuid.UUID) {
				_, err := s.Grant(ctx, info, permission.GrantPermission{Scope: "products:manage"})
				require.NoError(t, err)
			},
			scope:      "products:delete",
			resourceID: "p-1",
			allowed:    true,
		},
		{
			name: "Resource Grant Only Covers Its Resource",
			setup: func(t *testing.T, s *service, info uuid.UUID) {
				_, err := s.Grant(ctx, info, permission.GrantPermission{Scope: "orders:update", ResourceID: "o-1"})
				require.NoError(t, err)
			},
			scope:      "orders:update",
			resourceID: "o-2",
		},
		{
			name: "Resource Grant",
			setup: func(t *testing.T, s *service, info uuid.UUID) {
				_, err := s.Grant(ctx, info, permission.GrantPermission{Scope: "orders:update", ResourceID: "o-1"})
				require.NoError(t, err)
			},
			scope:      "orders:update",
			resourceID: "o-1",
			allowed:    true,
		},
		{
			name: "Resource Revocation Beats General Grant",
			setup: func(t *testing.T, s *service, info uuid.UUID) {
				_, err := s.Grant(ctx, info, permission.GrantPermission{Scope: "orders:update"})
				require.NoError(t, err)
				g, err := s.Grant(ctx, info, permission.GrantPermission{Scope: "orders:update", ResourceID: "o-1"})
				require.NoError(t, err)
				revoked, err := s.Revoke(ctx, info, g.PermissionID, "o-1")
				require.NoError(t, err)
				require.True(t, revoked)
			},
			scope:      "orders:update",
			resourceID: "o-1",
		},
		{
			name: "Expired Grant",
			setup: func(t *testing.T, s *service, info uuid.UUID) {
				s.now = func() time.Time { return past.Add(-time.Hour) }
				_, err := s.Grant(ctx, info, permission.GrantPermission{Scope: "kyc:read", ExpiresAt: &past})
				require.NoError(t, err)
				s.now = func() time.Time { return now }
			},
			scope: "kyc:read",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			testService, info := newService(t, "admin")
			testService.now = func() time.Time { return now }
			test.setup(t, testService, info.ID)

			allowed, err := testService.Can(ctx, info.ID, test.scope, test.resourceID)
			require.NoError(t, err)
			assert.Equal(t, test.allowed, allowed)
		})
	}
}

func TestPermissionServiceGrantRenews(t *testing.T) {
	ctx := context.Background()
	testService, info := newService(t, "supplier")
	assignedBy := uuid.Must(uuid.NewV4())

	first, err := testService.Grant(ctx, info.ID, permission.GrantPermission{Scope: "Reviews:Read"})
	require.NoError(t, err)
	assert.Equal(t, "reviews:read", first.Permission.Scope())

	revoked, err := testService.Revoke(ctx, info.ID, first.PermissionID, "")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Revoking twice finds nothing left to revoke
	revoked, err = testService.Revoke(ctx, info.ID, first.PermissionID, "")
	require.NoError(t, err)
	assert.False(t, revoked)

	renewed, err := testService.Grant(ctx, info.ID, permission.GrantPermission{Scope: "reviews:read", AssignedBy: &assignedBy})
	require.NoError(t, err)
	assert.Equal(t, first.ID, renewed.ID)
	assert.True(t, renewed.Granted)
	require.NotNil(t, renewed.AssignedBy)
	assert.Equal(t, assignedBy, *renewed.AssignedBy)
}

func TestPermissionServiceValidation(t *testing.T) {
	ctx := context.Background()
	testService, info := newService(t, "admin")

	for _, test := range []struct {
		name string
		call func() error
		code internal.ErrorCode
	}{
		{
			name: "Malformed Scope",
			call: func() error {
				_, err := testService.Grant(ctx, info.ID, permission.GrantPermission{Scope: "orders"})
				return err
			},
			code: internal.ErrorCodeInvalidArgument,
		},
		{
			name: "Expiry In The Past",
			call: func() error {
				past := time.Now().Add(-time.Minute)
				_, err := testService.Grant(ctx, info.ID, permission.GrantPermission{Scope: "orders:read", ExpiresAt: &past})
				return err
			},
			code: internal.ErrorCodeInvalidArgument,
		},
		{
			name: "Unknown Profile",
			call: func() error {
				_, err := testService.Grant(ctx, uuid.Must(uuid.NewV4()), permission.GrantPermission{Scope: "orders:read"})
				return err
			},
			code: internal.ErrorCodeNotFound,
		},
		{
			name: "Unknown Permission",
			call: func() error {
				_, err := testService.Revoke(ctx, info.ID, uuid.Must(uuid.NewV4()), "")
				return err
			},
			code: internal.ErrorCodeNotFound,
		},
		{
			name: "Duplicate Permission",
			call: func() error {
				if _, err := testService.CreatePermission(ctx, permission.CreatePermission{Scope: "reports:read"}); err != nil {
					return err
				}
				_, err := testService.CreatePermission(ctx, permission.CreatePermission{Scope: "reports:read"})
				return err
			},
			code: internal.ErrorCodeConflict,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := test.call()
			require.Error(t, err)
			assert.Equal(t, test.code, internal.CodeOf(err))
		})
	}
}
