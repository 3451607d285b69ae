package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type gormCatalogRepository struct {
	categories persistence.Repository[catalog.Category]
	products   persistence.Repository[catalog.Product]
	items      persistence.Repository[catalog.ProductItem]
}

func NewGormCatalogRepository(d *gorm.DB) catalog.Repository {
	return &gormCatalogRepository{
		categories: persistence.NewRepository[catalog.Category](d),
		products:   persistence.NewRepository[catalog.Product](d),
		items:      persistence.NewRepository[catalog.ProductItem](d),
	}
}

func (g *gormCatalogRepository) CreateCategory(ctx context.Context, newCategory *catalog.Category) error {
	return g.categories.Create(ctx, newCategory)
}

func (g *gormCatalogRepository) GetCategory(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	return g.categories.Get(ctx, id)
}

func (g *gormCatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return g.categories.Find(ctx, map[string]interface{}{"is_active": true}, persistence.OrderBy("sort_order, title"))
}

func (g *gormCatalogRepository) CreateProduct(ctx context.Context, newProduct *catalog.Product) error {
	return g.products.Create(ctx, newProduct)
}

func (g *gormCatalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return g.products.Get(ctx, id)
}

func (g *gormCatalogRepository) GetProductByFriendlyID(ctx context.Context, friendlyID string) (*catalog.Product, error) {
	return g.products.GetByFriendlyID(ctx, friendlyID)
}

func (g *gormCatalogRepository) UpdateProduct(ctx context.Context, id uuid.UUID, changes catalog.UpdateProduct) (*catalog.Product, error) {
	return g.products.Update(ctx, id, changes)
}

func (g *gormCatalogRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return g.products.Delete(ctx, id)
}

func (g *gormCatalogRepository) SearchProducts(ctx context.Context, filter catalog.ProductFilter, page internal.Page) ([]catalog.Product, error) {
	opts := []persistence.QueryOption{persistence.OrderBy("id DESC")}
	if filter.CategoryID != nil {
		opts = append(opts, persistence.Where("category_id = ?", *filter.CategoryID))
	}
	if filter.Status != nil {
		opts = append(opts, persistence.Where("status = ?", *filter.Status))
	}
	return g.products.Search(ctx, filter.Query, page, opts...)
}

func (g *gormCatalogRepository) FindOrCreateProductItem(ctx context.Context, item catalog.ProductItem) (*catalog.ProductItem, bool, error) {
	conds := map[string]interface{}{
		"product_id":                  item.ProductID,
		"seller_account_type_info_id": item.SellerAccountTypeInfoID,
	}
	return g.items.FindOrCreate(ctx, conds, func() catalog.ProductItem {
		return item
	})
}

func (g *gormCatalogRepository) GetProductItem(ctx context.Context, id uuid.UUID) (*catalog.ProductItem, error) {
	return g.items.Get(ctx, id, persistence.Preload("Product"))
}

func (g *gormCatalogRepository) GetProductItemByFriendlyID(ctx context.Context, friendlyID string) (*catalog.ProductItem, error) {
	return g.items.GetByFriendlyID(ctx, friendlyID, persistence.Preload("Product"))
}

func (g *gormCatalogRepository) RepriceProductItems(ctx context.Context, productID uuid.UUID, price decimal.Decimal) error {
	items, err := g.items.Find(ctx, map[string]interface{}{"product_id": productID})
	if err != nil {
		return err
	}
	for _, item := range items {
		changes := map[string]interface{}{"price": catalog.ResalePrice(price, item.MarkupPercentage)}
		if _, err := g.items.Update(ctx, item.ID, changes); err != nil {
			return err
		}
	}
	return nil
}
