package mocks

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/inventory"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/mock"
)

// Repository is a mock type for the inventory.Repository type
type Repository struct {
	mock.Mock
}

func (_m *Repository) GetOrCreateForUpdate(ctx context.Context, target record.Ref) (*inventory.Inventory, error) {
	ret := _m.Called(ctx, target)

	var r0 *inventory.Inventory
	if rf, ok := ret.Get(0).(func(context.Context, record.Ref) *inventory.Inventory); ok {
		r0 = rf(ctx, target)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*inventory.Inventory)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) GetByTarget(ctx context.Context, target record.Ref) (*inventory.Inventory, error) {
	ret := _m.Called(ctx, target)

	var r0 *inventory.Inventory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*inventory.Inventory)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) Get(ctx context.Context, id uuid.UUID) (*inventory.Inventory, error) {
	ret := _m.Called(ctx, id)

	var r0 *inventory.Inventory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*inventory.Inventory)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) SaveCounters(ctx context.Context, inv *inventory.Inventory) error {
	ret := _m.Called(ctx, inv)
	return ret.Error(0)
}

func (_m *Repository) SetReorderLevel(ctx context.Context, id uuid.UUID, level int) (*inventory.Inventory, error) {
	ret := _m.Called(ctx, id, level)

	var r0 *inventory.Inventory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*inventory.Inventory)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) AppendAction(ctx context.Context, action *inventory.Action) error {
	ret := _m.Called(ctx, action)
	return ret.Error(0)
}

func (_m *Repository) ListActions(ctx context.Context, inventoryID uuid.UUID, actionType *inventory.ActionType, page internal.Page) ([]inventory.Action, error) {
	ret := _m.Called(ctx, inventoryID, actionType, page)

	var r0 []inventory.Action
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]inventory.Action)
	}
	return r0, ret.Error(1)
}
