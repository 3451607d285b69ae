package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/order"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormOrderRepository struct {
	persistence.Repository[order.Order]

	invoices persistence.Repository[order.Invoice]
}

func NewGormOrderRepository(d *gorm.DB) order.Repository {
	return &gormOrderRepository{
		Repository: persistence.NewRepository[order.Order](d),

		invoices: persistence.NewRepository[order.Invoice](d),
	}
}

func lines(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (g *gormOrderRepository) Create(ctx context.Context, newOrder *order.Order) error {
	if err := g.Conn(ctx).Omit(clause.Associations).Create(newOrder).Error; err != nil {
		return persistence.Translate(err, "Failed to create order")
	}
	return nil
}

func (g *gormOrderRepository) CreateItems(ctx context.Context, items []order.Item) error {
	if len(items) == 0 {
		return nil
	}
	if err := g.Conn(ctx).Create(&items).Error; err != nil {
		return persistence.Translate(err, "Failed to create order items")
	}
	return nil
}

func (g *gormOrderRepository) CreateInvoice(ctx context.Context, invoice *order.Invoice) error {
	return g.invoices.Create(ctx, invoice)
}

func (g *gormOrderRepository) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return g.Repository.Get(ctx, id, persistence.Preload("Items", lines), persistence.Preload("Invoice"))
}

func (g *gormOrderRepository) GetByFriendlyID(ctx context.Context, friendlyID string) (*order.Order, error) {
	return g.Repository.GetByFriendlyID(ctx, friendlyID, persistence.Preload("Items", lines), persistence.Preload("Invoice"))
}

func (g *gormOrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	opts := []persistence.QueryOption{persistence.Preload("Items", lines)}
	if g.DB.Dialector.Name() == "postgres" {
		opts = append(opts, func(db *gorm.DB) *gorm.DB {
			return db.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}})
		})
	}
	return g.Repository.Get(ctx, id, opts...)
}

func (g *gormOrderRepository) ListFor(ctx context.Context, accountTypeInfoID uuid.UUID, page internal.Page) ([]order.Order, error) {
	return g.Find(ctx, map[string]interface{}{"account_type_info_id": accountTypeInfoID}, persistence.OrderBy("id DESC"), persistence.Paginate(page))
}

func (g *gormOrderRepository) SetStatus(ctx context.Context, id uuid.UUID, status order.Status) (*order.Order, error) {
	if _, err := g.Update(ctx, id, map[string]interface{}{"status": status}); err != nil {
		return nil, err
	}
	return g.Get(ctx, id)
}

func (g *gormOrderRepository) GetInvoiceForUpdate(ctx context.Context, orderID uuid.UUID) (*order.Invoice, error) {
	var opts []persistence.QueryOption
	if g.DB.Dialector.Name() == "postgres" {
		opts = append(opts, func(db *gorm.DB) *gorm.DB {
			return db.Clauses(clause.Locking{Strength: "UPDATE"})
		})
	}
	return g.invoices.FindOneBy(ctx, map[string]interface{}{"order_id": orderID}, opts...)
}

func (g *gormOrderRepository) UpdateInvoice(ctx context.Context, invoice *order.Invoice) error {
	_, err := g.invoices.Update(ctx, invoice.ID, map[string]interface{}{
		"amount_paid": invoice.AmountPaid,
		"status":      invoice.Status,
	})
	return err
}
