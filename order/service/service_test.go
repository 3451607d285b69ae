package service

import (
	"context"
	"sync"
	"testing"

	accountGorm "github.com/RagOfJoes/bloom/account/repository/gorm"
	accountService "github.com/RagOfJoes/bloom/account/service"
	"github.com/RagOfJoes/bloom/cart"
	cartGorm "github.com/RagOfJoes/bloom/cart/repository/gorm"
	cartService "github.com/RagOfJoes/bloom/cart/service"
	"github.com/RagOfJoes/bloom/catalog"
	catalogGorm "github.com/RagOfJoes/bloom/catalog/repository/gorm"
	catalogService "github.com/RagOfJoes/bloom/catalog/service"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/RagOfJoes/bloom/inventory"
	inventoryGorm "github.com/RagOfJoes/bloom/inventory/repository/gorm"
	inventoryService "github.com/RagOfJoes/bloom/inventory/service"
	"github.com/RagOfJoes/bloom/jobs/tasks"
	"github.com/RagOfJoes/bloom/order"
	orderGorm "github.com/RagOfJoes/bloom/order/repository/gorm"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder keeps the names of enqueued jobs
type recorder struct {
	mu   sync.Mutex
	jobs []string
}

func (r *recorder) Enqueue(ctx context.Context, name string, payload interface{}, queue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, name)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.jobs...)
}

type fixture struct {
	service   *service
	carts     cart.Service
	inventory inventory.Service
	products  persistence.Repository[catalog.Product]
	queue     *recorder
	currency  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := sqlitetest.New(t)
	tx := persistence.NewTransactor(db)
	log := logger.Nop()
	cfg := config.Default()

	products := persistence.NewRepository[catalog.Product](db)
	registry := record.NewRegistry()
	registry.Register(record.KindProduct, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		found, err := products.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return found, nil
	})

	as := accountService.NewAccountService(cfg.Credential, tx, accountGorm.NewGormAccountRepository(db))
	cat := catalogService.NewCatalogService(tx, registry, catalogGorm.NewGormCatalogRepository(db))
	is := inventoryService.NewInventoryService(tx, log, registry, inventoryGorm.NewGormInventoryRepository(db))
	cs := cartService.NewCartService(tx, registry, is, cartGorm.NewGormCartRepository(db))
	queue := &recorder{}
	emails := tasks.NewEmails(queue, cfg.Queue, log)

	return &fixture{
		service:   NewOrderService(tx, log, as, cs, cat, is, emails, orderGorm.NewGormOrderRepository(db)).(*service),
		carts:     cs,
		inventory: is,
		products:  products,
		queue:     queue,
		currency:  uuid.Must(uuid.NewV4()),
	}
}

func (f *fixture) product(t *testing.T, price string) record.Ref {
	t.Helper()
	p := &catalog.Product{
		Name:              "Calathea",
		Slug:              internal.Slug("Calathea", uuid.Must(uuid.NewV4())),
		Price:             decimal.RequireFromString(price),
		SupplierAccountID: uuid.Must(uuid.NewV4()),
		CurrencyID:        f.currency,
		Status:            catalog.ProductActive,
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return record.Ref{Type: record.KindProduct, ID: p.ID}
}

func (f *fixture) stockIn(t *testing.T, target record.Ref, quantity int) {
	t.Helper()
	_, _, err := f.inventory.ApplyAction(context.Background(), target, inventory.ApplyAction{ActionType: inventory.StockIn, Quantity: quantity})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, target record.Ref) *inventory.Inventory {
	t.Helper()
	inv, err := f.inventory.Get(context.Background(), target)
	require.NoError(t, err)
	return inv
}

// place orders quantity of target through a fresh guest cart
func (f *fixture) place(t *testing.T, target record.Ref, quantity int) *order.Order {
	t.Helper()
	ctx := context.Background()
	session := uuid.Must(uuid.NewV4()).String()
	c, err := f.carts.Create(ctx, cart.Owner{SessionID: &session})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, c.ID, cart.AddItem{
		CartableType: string(target.Type),
		CartableID:   target.ID,
		Quantity:     quantity,
	})
	require.NoError(t, err)

	recipient := "guest@bloom.shop"
	placed, err := f.service.PlaceFromCart(ctx, order.PlaceOrder{
		CartID:     c.ID,
		CurrencyID: f.currency,
		Email:      &recipient,
	})
	require.NoError(t, err)
	return placed
}

func (f *fixture) move(t *testing.T, id uuid.UUID, statuses ...order.Status) *order.Order {
	t.Helper()
	var (
		updated *order.Order
		err     error
	)
	for _, status := range statuses {
		updated, err = f.service.UpdateStatus(context.Background(), id, order.UpdateStatus{Status: status})
		require.NoError(t, err)
		require.Equal(t, status, updated.Status)
	}
	return updated
}

func TestOrderServicePlaceFromCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := f.product(t, "12.50")
	f.stockIn(t, target, 10)

	placed := f.place(t, target, 3)
	assert.Equal(t, order.Pending, placed.Status)
	assert.True(t, decimal.RequireFromString("37.50").Equal(placed.Total), placed.Total.String())
	require.Len(t, placed.Items, 1)
	assert.Equal(t, 3, placed.Items[0].ReservedQuantity)
	require.NotNil(t, placed.Invoice)
	assert.Equal(t, order.Unpaid, placed.Invoice.Status)
	assert.Equal(t, []string{tasks.SendEmail}, f.queue.names())

	inv := f.stock(t, target)
	assert.Equal(t, 10, inv.QuantityInStock)
	assert.Equal(t, 3, inv.ReservedStock)

	found, err := f.service.Get(ctx, placed.ID.String())
	require.NoError(t, err)
	assert.Equal(t, placed.OrderTag, found.OrderTag)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 3, found.Items[0].ReservedQuantity)
}

func TestOrderServicePlaceFromCartRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := f.product(t, "9.00")
	f.stockIn(t, target, 1)

	for _, test := range []struct {
		name     string
		quantity int
		email    *string
		currency *uuid.UUID
	}{
		{name: "Empty Cart"},
		{name: "Guest Without Email", quantity: 1},
		{name: "Currency Mismatch", quantity: 1, email: strPtr("guest@bloom.shop"), currency: uuidPtr(uuid.Must(uuid.NewV4()))},
	} {
		t.Run(test.name, func(t *testing.T) {
			session := uuid.Must(uuid.NewV4()).String()
			c, err := f.carts.Create(ctx, cart.Owner{SessionID: &session})
			require.NoError(t, err)
			if test.quantity > 0 {
				_, err = f.carts.AddItem(ctx, c.ID, cart.AddItem{
					CartableType: string(target.Type),
					CartableID:   target.ID,
					Quantity:     test.quantity,
				})
				require.NoError(t, err)
			}
			currency := f.currency
			if test.currency != nil {
				currency = *test.currency
			}

			_, err = f.service.PlaceFromCart(ctx, order.PlaceOrder{CartID: c.ID, CurrencyID: currency, Email: test.email})
			require.Error(t, err)
			assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))

			// Nothing was held for the failed order
			assert.Equal(t, 0, f.stock(t, target).ReservedStock)
		})
	}
	assert.Empty(t, f.queue.names())
}

func TestOrderServiceCancelReleasesWhatWasReserved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := f.product(t, "5.00")

	// Placed before the product had an inventory, so nothing is held for it
	untracked := f.place(t, target, 2)
	require.Len(t, untracked.Items, 1)
	assert.Equal(t, 0, untracked.Items[0].ReservedQuantity)

	f.stockIn(t, target, 10)
	tracked := f.place(t, target, 2)
	require.Len(t, tracked.Items, 1)
	assert.Equal(t, 2, tracked.Items[0].ReservedQuantity)

	cancelled := f.move(t, untracked.ID, order.Cancelled)
	require.NotNil(t, cancelled.Invoice)
	assert.Equal(t, order.Void, cancelled.Invoice.Status)

	inv := f.stock(t, target)
	assert.Equal(t, 10, inv.QuantityInStock)
	assert.Equal(t, 2, inv.ReservedStock)

	f.move(t, tracked.ID, order.Cancelled)
	inv = f.stock(t, target)
	assert.Equal(t, 10, inv.QuantityInStock)
	assert.Equal(t, 0, inv.ReservedStock)

	// A cancelled order holds nothing and cannot move on
	_, err := f.service.UpdateStatus(ctx, tracked.ID, order.UpdateStatus{Status: order.Confirmed})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))
}

func TestOrderServiceShip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := f.product(t, "15.00")
	f.stockIn(t, target, 10)

	placed := f.place(t, target, 4)

	_, err := f.service.UpdateStatus(ctx, placed.ID, order.UpdateStatus{Status: order.Shipped})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))

	f.move(t, placed.ID, order.Confirmed, order.Processing, order.Shipped)
	inv := f.stock(t, target)
	assert.Equal(t, 6, inv.QuantityInStock)
	assert.Equal(t, 0, inv.ReservedStock)

	stockOut := inventory.StockOut
	actions, err := f.inventory.Actions(ctx, inv.ID, &stockOut, internal.Page{}.Normalize())
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, -4, actions[0].Quantity)

	// Delivering does not touch the stock again
	f.move(t, placed.ID, order.Delivered)
	assert.Equal(t, 6, f.stock(t, target).QuantityInStock)
}

func TestOrderServiceRecordPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := f.product(t, "12.50")
	placed := f.place(t, target, 2)

	for _, test := range []struct {
		name    string
		amount  string
		code    internal.ErrorCode
		invoice order.InvoiceStatus
		order   order.Status
	}{
		{name: "Zero", amount: "0", code: internal.ErrorCodeInvalidArgument},
		{name: "Overpayment", amount: "25.01", code: internal.ErrorCodeInvalidArgument},
		{name: "Partial", amount: "10", invoice: order.PartiallyPaid, order: order.Pending},
		{name: "Overpaying The Rest", amount: "15.01", code: internal.ErrorCodeInvalidArgument},
		{name: "Rest", amount: "15", invoice: order.Paid, order: order.Confirmed},
		{name: "Already Paid", amount: "0.01", code: internal.ErrorCodeInvalidArgument},
	} {
		t.Run(test.name, func(t *testing.T) {
			invoice, err := f.service.RecordPayment(ctx, placed.ID, order.RecordPayment{Amount: decimal.RequireFromString(test.amount)})
			if test.code != "" {
				require.Error(t, err)
				assert.Equal(t, test.code, internal.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.invoice, invoice.Status)

			found, err := f.service.Get(ctx, placed.ID.String())
			require.NoError(t, err)
			assert.Equal(t, test.order, found.Status)
		})
	}
}

func TestOrderServiceRecordPaymentVoided(t *testing.T) {
	f := newFixture(t)
	target := f.product(t, "8.00")
	placed := f.place(t, target, 1)
	f.move(t, placed.ID, order.Cancelled)

	_, err := f.service.RecordPayment(context.Background(), placed.ID, order.RecordPayment{Amount: decimal.RequireFromString("8")})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))
}

func strPtr(s string) *string {
	return &s
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
