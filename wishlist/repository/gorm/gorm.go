package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/wishlist"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormWishlistRepository struct {
	persistence.Repository[wishlist.Wishlist]

	items persistence.Repository[wishlist.Item]
}

func NewGormWishlistRepository(d *gorm.DB) wishlist.Repository {
	return &gormWishlistRepository{
		Repository: persistence.NewRepository[wishlist.Wishlist](d),

		items: persistence.NewRepository[wishlist.Item](d),
	}
}

func (g *gormWishlistRepository) Create(ctx context.Context, newWishlist wishlist.Wishlist) (*wishlist.Wishlist, error) {
	if err := g.Repository.Create(ctx, &newWishlist); err != nil {
		return nil, err
	}
	return &newWishlist, nil
}

func (g *gormWishlistRepository) Get(ctx context.Context, id uuid.UUID) (*wishlist.Wishlist, error) {
	return g.Repository.Get(ctx, id)
}

func (g *gormWishlistRepository) GetByFriendlyID(ctx context.Context, friendlyID string) (*wishlist.Wishlist, error) {
	return g.Repository.GetByFriendlyID(ctx, friendlyID)
}

func (g *gormWishlistRepository) FindOrCreateDefault(ctx context.Context, accountTypeInfoID uuid.UUID) (*wishlist.Wishlist, error) {
	conds := map[string]interface{}{
		"account_type_info_id": accountTypeInfoID,
		"name":                 wishlist.DefaultName,
	}
	found, _, err := g.FindOrCreate(ctx, conds, func() wishlist.Wishlist {
		return wishlist.Wishlist{
			AccountTypeInfoID: accountTypeInfoID,
			Name:              wishlist.DefaultName,
			IsDefault:         true,
		}
	})
	return found, err
}

func (g *gormWishlistRepository) ListFor(ctx context.Context, accountTypeInfoID uuid.UUID) ([]wishlist.Wishlist, error) {
	return g.Find(ctx, map[string]interface{}{"account_type_info_id": accountTypeInfoID}, persistence.OrderBy("is_default DESC, name"))
}

func (g *gormWishlistRepository) ListItems(ctx context.Context, wishlistID uuid.UUID) ([]wishlist.Item, error) {
	return g.items.Find(ctx, map[string]interface{}{"wishlist_id": wishlistID}, persistence.OrderBy("priority DESC, created_at"))
}

func (g *gormWishlistRepository) UpsertItem(ctx context.Context, item wishlist.Item) (*wishlist.Item, error) {
	err := g.Conn(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "wishlist_id"}, {Name: "wishable_type"}, {Name: "wishable_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"priority":   item.Priority,
				"notes":      item.Notes,
				"updated_at": g.DB.NowFunc(),
			}),
		}).
		Create(&item).Error
	if err != nil {
		return nil, persistence.Translate(err, "Failed to add %s to wishlist %s", item.Target(), item.WishlistID)
	}
	return g.items.FindOneBy(ctx, map[string]interface{}{
		"wishlist_id":   item.WishlistID,
		"wishable_type": item.WishableType,
		"wishable_id":   item.WishableID,
	})
}

func (g *gormWishlistRepository) DeleteItem(ctx context.Context, wishlistID uuid.UUID, itemID uuid.UUID) error {
	err := g.Conn(ctx).Where("wishlist_id = ? AND id = ?", wishlistID, itemID).Delete(&wishlist.Item{}).Error
	if err != nil {
		return persistence.Translate(err, "Failed to remove item %s", itemID)
	}
	return nil
}
