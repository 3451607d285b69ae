package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/resale"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

type gormResaleRepository struct {
	persistence.Repository[resale.Request]
}

func NewGormResaleRepository(d *gorm.DB) resale.Repository {
	return &gormResaleRepository{
		Repository: persistence.NewRepository[resale.Request](d),
	}
}

func (g *gormResaleRepository) Get(ctx context.Context, id uuid.UUID) (*resale.Request, error) {
	return g.Repository.Get(ctx, id, persistence.Preload("Product"))
}

func (g *gormResaleRepository) List(ctx context.Context, filter resale.Filter, page internal.Page) ([]resale.Request, error) {
	conds := map[string]interface{}{}
	if filter.SellerAccountTypeInfoID != nil {
		conds["seller_account_type_info_id"] = *filter.SellerAccountTypeInfoID
	}
	if filter.SupplierAccountID != nil {
		conds["supplier_account_id"] = *filter.SupplierAccountID
	}
	if filter.ProductID != nil {
		conds["product_id"] = *filter.ProductID
	}
	if filter.Status != nil {
		conds["status"] = *filter.Status
	}
	return g.Find(ctx, conds, persistence.OrderBy("created_at DESC"), persistence.Paginate(page))
}

func (g *gormResaleRepository) Transition(ctx context.Context, id uuid.UUID, from resale.Status, changes map[string]interface{}) (bool, error) {
	changes["updated_at"] = g.DB.NowFunc()
	res := g.Conn(ctx).
		Model(&resale.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(changes)
	if res.Error != nil {
		return false, persistence.Translate(res.Error, "Failed to update resale request %s", id)
	}
	return res.RowsAffected > 0, nil
}

func (g *gormResaleRepository) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := g.Conn(ctx).
		Where("id = ? AND status = ?", id, resale.Pending).
		Delete(&resale.Request{})
	if res.Error != nil {
		return false, persistence.Translate(res.Error, "Failed to delete resale request %s", id)
	}
	return res.RowsAffected > 0, nil
}
