package service

import (
	"context"
	"testing"

	"github.com/RagOfJoes/bloom/catalog"
	catalogGorm "github.com/RagOfJoes/bloom/catalog/repository/gorm"
	catalogService "github.com/RagOfJoes/bloom/catalog/service"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/resale"
	resaleGorm "github.com/RagOfJoes/bloom/resale/repository/gorm"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service  resale.Service
	catalog  catalog.Service
	products persistence.Repository[catalog.Product]
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := sqlitetest.New(t)
	tx := persistence.NewTransactor(db)

	registry := record.NewRegistry()
	registry.Register(record.KindAccountTypeInfo, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		return struct{}{}, nil
	})
	cs := catalogService.NewCatalogService(tx, registry, catalogGorm.NewGormCatalogRepository(db))

	return fixture{
		service:  NewResaleService(tx, logger.Nop(), registry, cs, resaleGorm.NewGormResaleRepository(db)),
		catalog:  cs,
		products: persistence.NewRepository[catalog.Product](db),
	}
}

func (f fixture) product(t *testing.T, status catalog.ProductStatus) *catalog.Product {
	t.Helper()
	product := &catalog.Product{
		Name:              "Fiddle Leaf Fig",
		Slug:              internal.Slug("Fiddle Leaf Fig", uuid.Must(uuid.NewV4())),
		Price:             decimal.RequireFromString("40.00"),
		SupplierAccountID: uuid.Must(uuid.NewV4()),
		CurrencyID:        uuid.Must(uuid.NewV4()),
		Status:            status,
	}
	require.NoError(t, f.products.Create(context.Background(), product))
	return product
}

func TestResaleServiceCreateImplicit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := f.product(t, catalog.ProductActive)
	seller := uuid.Must(uuid.NewV4())

	created, err := f.service.Create(ctx, resale.CreateRequest{
		SellerAccountTypeInfoID: seller,
		ProductID:               product.ID,
		RequestedQuantity:       5,
		MarkupPercentage:        decimal.RequireFromString("25"),
	})
	require.NoError(t, err)
	assert.Equal(t, resale.Implicit, created.Mode)
	assert.Equal(t, resale.Approved, created.Status)
	assert.Equal(t, product.SupplierAccountID, created.SupplierAccountID)
	assert.NotNil(t, created.DecidedAt)
	require.NotNil(t, created.ProductItemID)

	item, err := f.catalog.GetProductItem(ctx, *created.ProductItemID)
	require.NoError(t, err)
	assert.Equal(t, seller, item.SellerAccountTypeInfoID)
	assert.True(t, decimal.RequireFromString("50.00").Equal(item.Price), item.Price.String())

	// One request per seller, supplier and product
	_, err = f.service.Create(ctx, resale.CreateRequest{
		SellerAccountTypeInfoID: seller,
		ProductID:               product.ID,
		Mode:                    resale.Explicit,
		RequestedQuantity:       1,
	})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))
}

func TestResaleServiceCreateInactiveProduct(t *testing.T) {
	f := newFixture(t)
	product := f.product(t, catalog.ProductDraft)

	_, err := f.service.Create(context.Background(), resale.CreateRequest{
		SellerAccountTypeInfoID: uuid.Must(uuid.NewV4()),
		ProductID:               product.ID,
		RequestedQuantity:       1,
	})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))
}

func TestResaleServiceDecide(t *testing.T) {
	ctx := context.Background()

	for _, test := range []struct {
		name     string
		supplier func(p *catalog.Product) uuid.UUID
		status   resale.Status
		code     internal.ErrorCode
		listed   bool
	}{
		{
			name:     "Approve",
			supplier: func(p *catalog.Product) uuid.UUID { return p.SupplierAccountID },
			status:   resale.Approved,
			listed:   true,
		},
		{
			name:     "Reject",
			supplier: func(p *catalog.Product) uuid.UUID { return p.SupplierAccountID },
			status:   resale.Rejected,
		},
		{
			name:     "Other Supplier",
			supplier: func(p *catalog.Product) uuid.UUID { return uuid.Must(uuid.NewV4()) },
			status:   resale.Approved,
			code:     internal.ErrorCodeForbidden,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			product := f.product(t, catalog.ProductActive)

			created, err := f.service.Create(ctx, resale.CreateRequest{
				SellerAccountTypeInfoID: uuid.Must(uuid.NewV4()),
				ProductID:               product.ID,
				Mode:                    resale.Explicit,
				RequestedQuantity:       3,
			})
			require.NoError(t, err)
			require.Equal(t, resale.Pending, created.Status)
			require.Nil(t, created.ProductItemID)

			note := "Seasonal stock"
			decided, err := f.service.Decide(ctx, created.ID, resale.Decide{
				SupplierAccountID: test.supplier(product),
				Status:            test.status,
				Note:              &note,
			})
			if test.code != "" {
				require.Error(t, err)
				assert.Equal(t, test.code, internal.CodeOf(err))

				found, err := f.service.Get(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, resale.Pending, found.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.status, decided.Status)
			require.NotNil(t, decided.Note)
			assert.Equal(t, note, *decided.Note)
			assert.Equal(t, test.listed, decided.ProductItemID != nil)

			// A decided request cannot move again
			_, err = f.service.Decide(ctx, created.ID, resale.Decide{
				SupplierAccountID: product.SupplierAccountID,
				Status:            resale.Approved,
			})
			require.Error(t, err)
			assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))
		})
	}
}

func TestResaleServiceWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := f.product(t, catalog.ProductActive)
	seller := uuid.Must(uuid.NewV4())

	pending, err := f.service.Create(ctx, resale.CreateRequest{
		SellerAccountTypeInfoID: seller,
		ProductID:               product.ID,
		Mode:                    resale.Explicit,
		RequestedQuantity:       2,
	})
	require.NoError(t, err)

	err = f.service.Withdraw(ctx, pending.ID, uuid.Must(uuid.NewV4()))
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeForbidden, internal.CodeOf(err))

	require.NoError(t, f.service.Withdraw(ctx, pending.ID, seller))
	_, err = f.service.Get(ctx, pending.ID)
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeNotFound, internal.CodeOf(err))

	// Approved requests stay
	approved, err := f.service.Create(ctx, resale.CreateRequest{
		SellerAccountTypeInfoID: seller,
		ProductID:               product.ID,
		RequestedQuantity:       2,
	})
	require.NoError(t, err)
	err = f.service.Withdraw(ctx, approved.ID, seller)
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeConflict, internal.CodeOf(err))

	status := resale.Approved
	listed, err := f.service.List(ctx, resale.Filter{SellerAccountTypeInfoID: &seller, Status: &status}, internal.Page{}.Normalize())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, approved.ID, listed[0].ID)
}
