package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/cart"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormCartRepository struct {
	persistence.Repository[cart.Cart]

	items persistence.Repository[cart.Item]
}

func NewGormCartRepository(d *gorm.DB) cart.Repository {
	return &gormCartRepository{
		Repository: persistence.NewRepository[cart.Cart](d),

		items: persistence.NewRepository[cart.Item](d),
	}
}

func ownerConds(owner cart.Owner) (map[string]interface{}, error) {
	switch {
	case !owner.Valid():
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", internal.ErrMissingOwner)
	case owner.AccountTypeInfoID != nil:
		return map[string]interface{}{"account_type_info_id": *owner.AccountTypeInfoID}, nil
	default:
		return map[string]interface{}{"session_id": *owner.SessionID}, nil
	}
}

func (g *gormCartRepository) FindOrCreate(ctx context.Context, owner cart.Owner) (*cart.Cart, bool, error) {
	conds, err := ownerConds(owner)
	if err != nil {
		return nil, false, err
	}
	return g.Repository.FindOrCreate(ctx, conds, func() cart.Cart {
		return cart.Cart{
			AccountTypeInfoID: owner.AccountTypeInfoID,
			SessionID:         owner.SessionID,
		}
	})
}

func (g *gormCartRepository) Get(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	return g.Repository.Get(ctx, id)
}

func (g *gormCartRepository) GetByFriendlyID(ctx context.Context, friendlyID string) (*cart.Cart, error) {
	return g.Repository.GetByFriendlyID(ctx, friendlyID)
}

func (g *gormCartRepository) GetByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	conds, err := ownerConds(owner)
	if err != nil {
		return nil, err
	}
	return g.FindOneBy(ctx, conds)
}

func (g *gormCartRepository) Adopt(ctx context.Context, id uuid.UUID, accountTypeInfoID uuid.UUID) error {
	_, err := g.Update(ctx, id, map[string]interface{}{
		"account_type_info_id": accountTypeInfoID,
		"session_id":           nil,
	})
	return err
}

func (g *gormCartRepository) Touch(ctx context.Context, id uuid.UUID) error {
	err := g.Conn(ctx).Model(&cart.Cart{}).Where("id = ?", id).UpdateColumn("updated_at", g.DB.NowFunc()).Error
	if err != nil {
		return persistence.Translate(err, "Failed to touch cart %s", id)
	}
	return nil
}

func (g *gormCartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]cart.Item, error) {
	return g.items.Find(ctx, map[string]interface{}{"cart_id": cartID}, persistence.OrderBy("created_at, id"))
}

func (g *gormCartRepository) GetItem(ctx context.Context, cartID uuid.UUID, itemID uuid.UUID) (*cart.Item, error) {
	return g.items.FindOneBy(ctx, map[string]interface{}{"cart_id": cartID, "id": itemID})
}

func (g *gormCartRepository) GetItemForUpdate(ctx context.Context, cartID uuid.UUID, itemID uuid.UUID) (*cart.Item, error) {
	// SQLite serializes writers on its own and has no row locks
	if g.DB.Dialector.Name() != "postgres" {
		return g.GetItem(ctx, cartID, itemID)
	}
	var locked cart.Item
	err := g.items.Conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		Take(&locked).Error
	if err != nil {
		return nil, persistence.Translate(err, "Failed to lock cart item %s", itemID)
	}
	return &locked, nil
}

func (g *gormCartRepository) FindOrCreateItem(ctx context.Context, cartID uuid.UUID, target record.Ref, quantity int) (*cart.Item, bool, error) {
	conds := map[string]interface{}{
		"cart_id":       cartID,
		"cartable_type": target.Type,
		"cartable_id":   target.ID,
	}
	return g.items.FindOrCreate(ctx, conds, func() cart.Item {
		return cart.Item{
			CartID:       cartID,
			CartableType: target.Type,
			CartableID:   target.ID,
			Quantity:     quantity,
		}
	})
}

func (g *gormCartRepository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*cart.Item, error) {
	return g.items.Update(ctx, itemID, map[string]interface{}{"quantity": quantity})
}

func (g *gormCartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return g.items.Delete(ctx, itemID)
}

func (g *gormCartRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	if err := g.Conn(ctx).Where("cart_id = ?", cartID).Delete(&cart.Item{}).Error; err != nil {
		return persistence.Translate(err, "Failed to clear cart %s", cartID)
	}
	return nil
}
