package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/inventory"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormInventoryRepository struct {
	persistence.Repository[inventory.Inventory]

	actions persistence.Repository[inventory.Action]
}

func NewGormInventoryRepository(d *gorm.DB) inventory.Repository {
	return &gormInventoryRepository{
		Repository: persistence.NewRepository[inventory.Inventory](d),

		actions: persistence.NewRepository[inventory.Action](d),
	}
}

func targetConds(target record.Ref) map[string]interface{} {
	return map[string]interface{}{
		"inventoriable_type": target.Type,
		"inventoriable_id":   target.ID,
	}
}

func (g *gormInventoryRepository) GetOrCreateForUpdate(ctx context.Context, target record.Ref) (*inventory.Inventory, error) {
	created, _, err := g.FindOrCreate(ctx, targetConds(target), func() inventory.Inventory {
		return inventory.Inventory{
			InventoriableType: target.Type,
			InventoriableID:   target.ID,
		}
	})
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers on its own and has no row locks
	if g.DB.Dialector.Name() != "postgres" {
		return created, nil
	}
	var locked inventory.Inventory
	err = g.Conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", created.ID).
		Take(&locked).Error
	if err != nil {
		return nil, persistence.Translate(err, "Failed to lock inventory %s", created.ID)
	}
	return &locked, nil
}

func (g *gormInventoryRepository) GetByTarget(ctx context.Context, target record.Ref) (*inventory.Inventory, error) {
	return g.FindOneBy(ctx, targetConds(target))
}

func (g *gormInventoryRepository) Get(ctx context.Context, id uuid.UUID) (*inventory.Inventory, error) {
	return g.Repository.Get(ctx, id)
}

func (g *gormInventoryRepository) SaveCounters(ctx context.Context, inv *inventory.Inventory) error {
	now := g.DB.NowFunc()
	err := g.Conn(ctx).
		Model(inv).
		Updates(map[string]interface{}{
			"quantity_in_stock": inv.QuantityInStock,
			"reserved_stock":    inv.ReservedStock,
			"updated_at":        now,
		}).Error
	if err != nil {
		return persistence.Translate(err, "Failed to update inventory %s", inv.ID)
	}
	inv.Touch(now)
	return nil
}

func (g *gormInventoryRepository) SetReorderLevel(ctx context.Context, id uuid.UUID, level int) (*inventory.Inventory, error) {
	return g.Update(ctx, id, map[string]interface{}{"reorder_level": level})
}

func (g *gormInventoryRepository) AppendAction(ctx context.Context, action *inventory.Action) error {
	return g.actions.Create(ctx, action)
}

func (g *gormInventoryRepository) ListActions(ctx context.Context, inventoryID uuid.UUID, actionType *inventory.ActionType, page internal.Page) ([]inventory.Action, error) {
	conds := map[string]interface{}{"inventory_id": inventoryID}
	if actionType != nil {
		conds["action_type"] = *actionType
	}
	return g.actions.Find(ctx, conds, persistence.OrderBy("id"), persistence.Paginate(page))
}
