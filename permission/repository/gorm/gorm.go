package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/permission"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

type gormPermissionRepository struct {
	persistence.Repository[permission.Permission]

	grants persistence.Repository[permission.Grant]
}

func NewGormPermissionRepository(d *gorm.DB) permission.Repository {
	return &gormPermissionRepository{
		Repository: persistence.NewRepository[permission.Permission](d),

		grants: persistence.NewRepository[permission.Grant](d),
	}
}

func (g *gormPermissionRepository) FindOrCreatePermission(ctx context.Context, resource string, action string, description *string) (*permission.Permission, bool, error) {
	conds := map[string]interface{}{
		"resource": resource,
		"action":   action,
	}
	return g.FindOrCreate(ctx, conds, func() permission.Permission {
		return permission.Permission{
			Resource:    resource,
			Action:      action,
			Description: description,
		}
	})
}

func (g *gormPermissionRepository) GetPermission(ctx context.Context, id uuid.UUID) (*permission.Permission, error) {
	return g.Get(ctx, id)
}

func (g *gormPermissionRepository) ListPermissions(ctx context.Context, page internal.Page) ([]permission.Permission, error) {
	return g.Find(ctx, nil, persistence.OrderBy("resource, action"), persistence.Paginate(page))
}

func grantConds(accountTypeInfoID uuid.UUID, permissionID uuid.UUID, resourceID string) map[string]interface{} {
	return map[string]interface{}{
		"account_type_info_id": accountTypeInfoID,
		"permission_id":        permissionID,
		"resource_id":          resourceID,
	}
}

func (g *gormPermissionRepository) FindOrCreateGrant(ctx context.Context, accountTypeInfoID uuid.UUID, permissionID uuid.UUID, resourceID string, build func() permission.Grant) (*permission.Grant, bool, error) {
	return g.grants.FindOrCreate(ctx, grantConds(accountTypeInfoID, permissionID, resourceID), build)
}

func (g *gormPermissionRepository) FindGrant(ctx context.Context, accountTypeInfoID uuid.UUID, permissionID uuid.UUID, resourceID string) (*permission.Grant, error) {
	return g.grants.FindOneBy(ctx, grantConds(accountTypeInfoID, permissionID, resourceID), persistence.Preload("Permission"))
}

func (g *gormPermissionRepository) UpdateGrant(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*permission.Grant, error) {
	if _, err := g.grants.Update(ctx, id, changes); err != nil {
		return nil, err
	}
	return g.grants.Get(ctx, id, persistence.Preload("Permission"))
}

func (g *gormPermissionRepository) ListGrants(ctx context.Context, accountTypeInfoID uuid.UUID) ([]permission.Grant, error) {
	return g.grants.Find(ctx, map[string]interface{}{"account_type_info_id": accountTypeInfoID}, persistence.Preload("Permission"), persistence.OrderBy("created_at"))
}
