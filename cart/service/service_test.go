package service

import (
	"context"
	"testing"

	"github.com/RagOfJoes/bloom/cart"
	cartGorm "github.com/RagOfJoes/bloom/cart/repository/gorm"
	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/RagOfJoes/bloom/inventory"
	inventoryGorm "github.com/RagOfJoes/bloom/inventory/repository/gorm"
	inventoryService "github.com/RagOfJoes/bloom/inventory/service"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCartServiceAddItemConcurrently(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	tx := persistence.NewTransactor(db)

	products := persistence.NewRepository[catalog.Product](db)
	product := &catalog.Product{
		Name:              "Pothos",
		Slug:              internal.Slug("Pothos", uuid.Must(uuid.NewV4())),
		Price:             decimal.RequireFromString("12.00"),
		SupplierAccountID: uuid.Must(uuid.NewV4()),
		CurrencyID:        uuid.Must(uuid.NewV4()),
		Status:            catalog.ProductActive,
	}
	require.NoError(t, products.Create(ctx, product))

	registry := record.NewRegistry()
	registry.Register(record.KindProduct, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		found, err := products.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return found, nil
	})
	is := inventoryService.NewInventoryService(tx, logger.Nop(), registry, inventoryGorm.NewGormInventoryRepository(db))
	testService := NewCartService(tx, registry, is, cartGorm.NewGormCartRepository(db))

	target := record.Ref{Type: record.KindProduct, ID: product.ID}
	_, _, err := is.ApplyAction(ctx, target, inventory.ApplyAction{ActionType: inventory.StockIn, Quantity: 20})
	require.NoError(t, err)

	session := "session-1"
	c, err := testService.Create(ctx, cart.Owner{SessionID: &session})
	require.NoError(t, err)

	const callers = 8
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			_, err := testService.AddItem(gctx, c.ID, cart.AddItem{
				CartableType: string(record.KindProduct),
				CartableID:   product.ID,
				Quantity:     2,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	found, err := testService.Get(ctx, c.ID.String())
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, callers*2, found.Items[0].Quantity)

	// The summed quantity is what the stock check sees
	_, err = testService.AddItem(ctx, c.ID, cart.AddItem{
		CartableType: string(record.KindProduct),
		CartableID:   product.ID,
		Quantity:     5,
	})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))
}
