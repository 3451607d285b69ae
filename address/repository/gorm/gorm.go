package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/address"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

type gormAddressRepository struct {
	persistence.Repository[address.Address]
}

func NewGormAddressRepository(d *gorm.DB) address.Repository {
	return &gormAddressRepository{
		Repository: persistence.NewRepository[address.Address](d),
	}
}

func (g *gormAddressRepository) Get(ctx context.Context, id uuid.UUID) (*address.Address, error) {
	return g.Repository.Get(ctx, id)
}

func (g *gormAddressRepository) ListFor(ctx context.Context, owner record.Ref) ([]address.Address, error) {
	return g.Find(ctx, map[string]interface{}{
		"addressable_type": owner.Type,
		"addressable_id":   owner.ID,
	}, persistence.OrderBy("is_default DESC, created_at"))
}

func (g *gormAddressRepository) ClearDefault(ctx context.Context, owner record.Ref) error {
	err := g.Conn(ctx).
		Model(&address.Address{}).
		Where("addressable_type = ? AND addressable_id = ? AND is_default = ?", owner.Type, owner.ID, true).
		Updates(map[string]interface{}{"is_default": false, "updated_at": g.DB.NowFunc()}).Error
	if err != nil {
		return persistence.Translate(err, "Failed to clear default address of %s", owner)
	}
	return nil
}
