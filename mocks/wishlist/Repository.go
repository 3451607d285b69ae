package mocks

import (
	"context"

	"github.com/RagOfJoes/bloom/wishlist"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/mock"
)

// Repository is a mock type for the wishlist.Repository type
type Repository struct {
	mock.Mock
}

func (_m *Repository) Create(ctx context.Context, newWishlist wishlist.Wishlist) (*wishlist.Wishlist, error) {
	ret := _m.Called(ctx, newWishlist)

	var r0 *wishlist.Wishlist
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*wishlist.Wishlist)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) Get(ctx context.Context, id uuid.UUID) (*wishlist.Wishlist, error) {
	ret := _m.Called(ctx, id)

	var r0 *wishlist.Wishlist
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*wishlist.Wishlist)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) GetByFriendlyID(ctx context.Context, friendlyID string) (*wishlist.Wishlist, error) {
	ret := _m.Called(ctx, friendlyID)

	var r0 *wishlist.Wishlist
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*wishlist.Wishlist)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) FindOrCreateDefault(ctx context.Context, accountTypeInfoID uuid.UUID) (*wishlist.Wishlist, error) {
	ret := _m.Called(ctx, accountTypeInfoID)

	var r0 *wishlist.Wishlist
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*wishlist.Wishlist)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) ListFor(ctx context.Context, accountTypeInfoID uuid.UUID) ([]wishlist.Wishlist, error) {
	ret := _m.Called(ctx, accountTypeInfoID)

	var r0 []wishlist.Wishlist
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]wishlist.Wishlist)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) ListItems(ctx context.Context, wishlistID uuid.UUID) ([]wishlist.Item, error) {
	ret := _m.Called(ctx, wishlistID)

	var r0 []wishlist.Item
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]wishlist.Item)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) UpsertItem(ctx context.Context, item wishlist.Item) (*wishlist.Item, error) {
	ret := _m.Called(ctx, item)

	var r0 *wishlist.Item
	if rf, ok := ret.Get(0).(func(context.Context, wishlist.Item) *wishlist.Item); ok {
		r0 = rf(ctx, item)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*wishlist.Item)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) DeleteItem(ctx context.Context, wishlistID uuid.UUID, itemID uuid.UUID) error {
	ret := _m.Called(ctx, wishlistID, itemID)
	return ret.Error(0)
}
