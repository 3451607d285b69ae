package service

import (
	"context"
	"testing"

	"github.com/RagOfJoes/bloom/catalog"
	catalogGorm "github.com/RagOfJoes/bloom/catalog/repository/gorm"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	supplier = uuid.Must(uuid.NewV4())
	seller   = uuid.Must(uuid.NewV4())
	currency = uuid.Must(uuid.NewV4())
)

func newService(t *testing.T) catalog.Service {
	t.Helper()
	db := sqlitetest.New(t)
	known := func(id uuid.UUID) record.Lookup {
		return func(ctx context.Context, got uuid.UUID) (interface{}, error) {
			if got != id {
				return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "%s does not exist", got)
			}
			return struct{}{}, nil
		}
	}
	registry := record.NewRegistry()
	registry.Register(record.KindAccount, known(supplier))
	registry.Register(record.KindAccountTypeInfo, known(seller))
	return NewCatalogService(persistence.NewTransactor(db), registry, catalogGorm.NewGormCatalogRepository(db))
}

func createProduct(t *testing.T, s catalog.Service, name string, price string, status catalog.ProductStatus) *catalog.Product {
	t.Helper()
	created, err := s.CreateProduct(context.Background(), catalog.CreateProduct{
		Name:              name,
		Price:             decimal.RequireFromString(price),
		SupplierAccountID: supplier,
		CurrencyID:        currency,
		Status:            status,
	})
	require.NoError(t, err)
	return created
}

func TestCatalogServiceCategoryTree(t *testing.T) {
	ctx := context.Background()
	testService := newService(t)

	plants, err := testService.CreateCategory(ctx, catalog.CreateCategory{Title: "Plants", SortOrder: 1})
	require.NoError(t, err)
	pots, err := testService.CreateCategory(ctx, catalog.CreateCategory{Title: "Pots"})
	require.NoError(t, err)
	_, err = testService.CreateCategory(ctx, catalog.CreateCategory{Title: "Succulents", ParentID: &plants.ID, SortOrder: 2})
	require.NoError(t, err)
	_, err = testService.CreateCategory(ctx, catalog.CreateCategory{Title: "Ferns", ParentID: &plants.ID, SortOrder: 1})
	require.NoError(t, err)

	missing := uuid.Must(uuid.NewV4())
	_, err = testService.CreateCategory(ctx, catalog.CreateCategory{Title: "Orphans", ParentID: &missing})
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))

	tree, err := testService.ListCategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, pots.ID, tree[0].ID)
	assert.Equal(t, plants.ID, tree[1].ID)
	require.Len(t, tree[1].Children, 2)
	assert.Equal(t, "Ferns", tree[1].Children[0].Title)
	assert.Equal(t, "Succulents", tree[1].Children[1].Title)
}

func TestCatalogServiceCreateProduct(t *testing.T) {
	ctx := context.Background()

	for _, test := range []struct {
		name    string
		payload catalog.CreateProduct
		code    internal.ErrorCode
		status  catalog.ProductStatus
	}{
		{
			name:    "Defaults To Draft",
			payload: catalog.CreateProduct{Name: "Snake Plant", Price: decimal.RequireFromString("19.999"), SupplierAccountID: supplier, CurrencyID: currency},
			status:  catalog.ProductDraft,
		},
		{
			name:    "Negative Price",
			payload: catalog.CreateProduct{Name: "Snake Plant", Price: decimal.RequireFromString("-1"), SupplierAccountID: supplier, CurrencyID: currency},
			code:    internal.ErrorCodeInvalidArgument,
		},
		{
			name:    "Profane Name",
			payload: catalog.CreateProduct{Name: "Shit Plant", Price: decimal.RequireFromString("1"), SupplierAccountID: supplier, CurrencyID: currency},
			code:    internal.ErrorCodeInvalidArgument,
		},
		{
			name:    "Unknown Supplier",
			payload: catalog.CreateProduct{Name: "Snake Plant", Price: decimal.RequireFromString("1"), SupplierAccountID: uuid.Must(uuid.NewV4()), CurrencyID: currency},
			code:    internal.ErrorCodeNotFound,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			created, err := newService(t).CreateProduct(ctx, test.payload)
			if test.code != "" {
				require.Error(t, err)
				assert.Equal(t, test.code, internal.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.status, created.Status)
			assert.True(t, decimal.RequireFromString("20.00").Equal(created.Price), created.Price.String())
			assert.True(t, internal.IsFriendlyID(created.FriendlyID))
		})
	}
}

func TestCatalogServiceFindAndSearchProducts(t *testing.T) {
	ctx := context.Background()
	testService := newService(t)
	fern := createProduct(t, testService, "Boston Fern", "14.00", catalog.ProductActive)
	createProduct(t, testService, "Rubber Plant", "22.00", catalog.ProductActive)
	createProduct(t, testService, "Bird Nest Fern", "18.00", catalog.ProductDraft)

	byFriendly, err := testService.FindProduct(ctx, fern.FriendlyID)
	require.NoError(t, err)
	assert.Equal(t, fern.ID, byFriendly.ID)

	_, err = testService.FindProduct(ctx, "not-an-id")
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeNotFound, internal.CodeOf(err))

	found, err := testService.SearchProducts(ctx, catalog.ProductFilter{Query: "fern"}, internal.Page{}.Normalize())
	require.NoError(t, err)
	assert.Len(t, found, 2)

	active := catalog.ProductActive
	found, err = testService.SearchProducts(ctx, catalog.ProductFilter{Query: "fern", Status: &active}, internal.Page{}.Normalize())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, fern.ID, found[0].ID)

	require.NoError(t, testService.DeleteProduct(ctx, fern.ID))
	_, err = testService.GetProduct(ctx, fern.ID)
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeNotFound, internal.CodeOf(err))
}

func TestCatalogServiceProductItems(t *testing.T) {
	ctx := context.Background()
	testService := newService(t)
	product := createProduct(t, testService, "Peace Lily", "40.00", catalog.ProductActive)
	draft := createProduct(t, testService, "Prayer Plant", "30.00", catalog.ProductDraft)

	payload := catalog.CreateProductItem{
		ProductID:               product.ID,
		SellerAccountTypeInfoID: seller,
		MarkupPercentage:        decimal.RequireFromString("25"),
	}
	item, err := testService.CreateProductItem(ctx, payload)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("50.00").Equal(item.Price), item.Price.String())

	// Listing the same product again returns the existing item
	again, err := testService.CreateProductItem(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)

	// Repricing the product follows through to its resale items
	price := decimal.RequireFromString("60")
	_, err = testService.UpdateProduct(ctx, product.ID, catalog.UpdateProduct{Price: &price})
	require.NoError(t, err)
	repriced, err := testService.FindProductItem(ctx, item.FriendlyID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("75.00").Equal(repriced.Price), repriced.Price.String())

	for _, test := range []struct {
		name    string
		payload catalog.CreateProductItem
		code    internal.ErrorCode
	}{
		{
			name:    "Product Not For Sale",
			payload: catalog.CreateProductItem{ProductID: draft.ID, SellerAccountTypeInfoID: seller},
			code:    internal.ErrorCodeInvalidArgument,
		},
		{
			name:    "Unknown Seller",
			payload: catalog.CreateProductItem{ProductID: product.ID, SellerAccountTypeInfoID: uuid.Must(uuid.NewV4())},
			code:    internal.ErrorCodeNotFound,
		},
		{
			name:    "Unknown Product",
			payload: catalog.CreateProductItem{ProductID: uuid.Must(uuid.NewV4()), SellerAccountTypeInfoID: seller},
			code:    internal.ErrorCodeNotFound,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := testService.CreateProductItem(ctx, test.payload)
			require.Error(t, err)
			assert.Equal(t, test.code, internal.CodeOf(err))
		})
	}
}
