package gorm

import (
	"context"
	"strings"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

type gormAccountRepository struct {
	persistence.Repository[account.Account]

	types  persistence.Repository[account.AccountType]
	groups persistence.Repository[account.AccountTypeGroup]
	infos  persistence.Repository[account.AccountTypeInfo]
}

func NewGormAccountRepository(d *gorm.DB) account.Repository {
	return &gormAccountRepository{
		Repository: persistence.NewRepository[account.Account](d),

		types:  persistence.NewRepository[account.AccountType](d),
		groups: persistence.NewRepository[account.AccountTypeGroup](d),
		infos:  persistence.NewRepository[account.AccountTypeInfo](d),
	}
}

func (g *gormAccountRepository) GetByFriendlyID(ctx context.Context, friendlyID string) (*account.Account, error) {
	return g.Repository.GetByFriendlyID(ctx, friendlyID)
}

func (g *gormAccountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return g.Repository.Get(ctx, id)
}

func (g *gormAccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return g.FindOneBy(ctx, map[string]interface{}{"email": strings.ToLower(email)})
}

func (g *gormAccountRepository) Update(ctx context.Context, id uuid.UUID, changes account.UpdateAccount) (*account.Account, error) {
	return g.Repository.Update(ctx, id, changes)
}

func (g *gormAccountRepository) CreateType(ctx context.Context, newType *account.AccountType) error {
	return g.types.Create(ctx, newType)
}

func (g *gormAccountRepository) GetTypeByKey(ctx context.Context, key string) (*account.AccountType, error) {
	return g.types.FindOneBy(ctx, map[string]interface{}{"key": key})
}

func (g *gormAccountRepository) FindOrCreateGroup(ctx context.Context, accountID uuid.UUID, accountTypeID uuid.UUID, assignedBy *uuid.UUID) (*account.AccountTypeGroup, bool, error) {
	conds := map[string]interface{}{
		"account_id":      accountID,
		"account_type_id": accountTypeID,
	}
	return g.groups.FindOrCreate(ctx, conds, func() account.AccountTypeGroup {
		return account.AccountTypeGroup{
			AccountID:     accountID,
			AccountTypeID: accountTypeID,
			AssignedBy:    assignedBy,
		}
	})
}

func (g *gormAccountRepository) FindOrCreateInfo(ctx context.Context, accountID uuid.UUID, accountTypeID uuid.UUID) (*account.AccountTypeInfo, bool, error) {
	conds := map[string]interface{}{
		"account_id":      accountID,
		"account_type_id": accountTypeID,
	}
	return g.infos.FindOrCreate(ctx, conds, func() account.AccountTypeInfo {
		return account.AccountTypeInfo{
			AccountID:     accountID,
			AccountTypeID: accountTypeID,
		}
	})
}

func (g *gormAccountRepository) GetInfo(ctx context.Context, id uuid.UUID) (*account.AccountTypeInfo, error) {
	return g.infos.Get(ctx, id, persistence.Preload("AccountType"))
}

func (g *gormAccountRepository) ListInfos(ctx context.Context, accountID uuid.UUID) ([]account.AccountTypeInfo, error) {
	return g.infos.Find(ctx, map[string]interface{}{"account_id": accountID}, persistence.Preload("AccountType"), persistence.OrderBy("created_at"))
}
