package service

import (
	"context"
	"testing"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/RagOfJoes/bloom/inventory"
	mocks "github.com/RagOfJoes/bloom/mocks/inventory"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRegistry() *record.Registry {
	registry := record.NewRegistry()
	registry.Register(record.KindProduct, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		return struct{}{}, nil
	})
	return registry
}

func TestInventoryServiceApplyAction(t *testing.T) {
	ctx := context.Background()
	target := record.Ref{Type: record.KindProduct, ID: uuid.Must(uuid.NewV4())}

	for _, test := range []struct {
		name      string
		inStock   int
		reserved  int
		change    int
		expectErr error
		available int
	}{
		{name: "Stock In", inStock: 10, reserved: 3, change: 5, available: 12},
		{name: "Stock Out To Zero", inStock: 4, change: -4, available: 0},
		{name: "Negative Stock", inStock: 2, change: -3, expectErr: inventory.ErrNegativeStock},
		{name: "Below Reserved", inStock: 10, reserved: 8, change: -5, expectErr: inventory.ErrStockBelowReserved},
	} {
		t.Run(test.name, func(t *testing.T) {
			mockRepo := &mocks.Repository{}
			testService := NewInventoryService(persistence.NopTransactor{}, logger.Nop(), newRegistry(), mockRepo)

			current := &inventory.Inventory{
				InventoriableType: target.Type,
				InventoriableID:   target.ID,
				QuantityInStock:   test.inStock,
				ReservedStock:     test.reserved,
			}
			mockRepo.On("GetOrCreateForUpdate", mock.Anything, target).Return(current, nil)
			mockRepo.On("SaveCounters", mock.Anything, current).Return(nil)
			mockRepo.On("AppendAction", mock.Anything, mock.AnythingOfType("*inventory.Action")).Return(nil)

			actionType := inventory.StockIn
			if test.change < 0 {
				actionType = inventory.StockOut
			}
			inv, action, err := testService.ApplyAction(ctx, target, inventory.ApplyAction{
				ActionType: actionType,
				Quantity:   test.change,
			})
			if test.expectErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.expectErr.Error())
				assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))
				mockRepo.AssertNotCalled(t, "SaveCounters", mock.Anything, mock.Anything)
				mockRepo.AssertNotCalled(t, "AppendAction", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.available, inv.Available())
			assert.Equal(t, inv.QuantityInStock-inv.ReservedStock, inv.Available())
			assert.Equal(t, test.change, action.Quantity)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestInventoryServiceReservations(t *testing.T) {
	ctx := context.Background()
	target := record.Ref{Type: record.KindProduct, ID: uuid.Must(uuid.NewV4())}

	mockRepo := &mocks.Repository{}
	testService := NewInventoryService(persistence.NopTransactor{}, logger.Nop(), newRegistry(), mockRepo)
	current := &inventory.Inventory{
		InventoriableType: target.Type,
		InventoriableID:   target.ID,
		QuantityInStock:   5,
	}
	mockRepo.On("GetOrCreateForUpdate", mock.Anything, target).Return(current, nil)
	mockRepo.On("SaveCounters", mock.Anything, current).Return(nil)

	inv, err := testService.Reserve(ctx, target, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, inv.ReservedStock)
	assert.Equal(t, 2, inv.Available())

	_, err = testService.Reserve(ctx, target, 3)
	assert.True(t, internal.IsCode(err, internal.ErrorCodeInvalidArgument))
	assert.Equal(t, 3, current.ReservedStock)

	_, err = testService.Release(ctx, target, 4)
	assert.True(t, internal.IsCode(err, internal.ErrorCodeInvalidArgument))

	inv, err = testService.Release(ctx, target, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Available())

	_, err = testService.Reserve(ctx, target, 0)
	assert.True(t, internal.IsCode(err, internal.ErrorCodeInvalidArgument))
}

func TestInventoryAvailable(t *testing.T) {
	for _, test := range []struct {
		inv       inventory.Inventory
		available int
		reorder   bool
	}{
		{inv: inventory.Inventory{QuantityInStock: 10, ReservedStock: 4}, available: 6},
		{inv: inventory.Inventory{QuantityInStock: 10, ReservedStock: 4, ReorderLevel: 6}, available: 6, reorder: true},
		{inv: inventory.Inventory{QuantityInStock: 0}, available: 0},
	} {
		assert.Equal(t, test.available, test.inv.Available())
		assert.Equal(t, test.reorder, test.inv.NeedsReorder())
	}
}
