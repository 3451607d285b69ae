package service

import (
	"context"
	"testing"

	"github.com/RagOfJoes/bloom/internal"
	mocks "github.com/RagOfJoes/bloom/mocks/wishlist"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/wishlist"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWishlistServiceAddItemPriority(t *testing.T) {
	ctx := context.Background()
	wishlistID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	registry := record.NewRegistry()
	registry.Register(record.KindProduct, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		if id != productID {
			return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "product %s does not exist", id)
		}
		return struct{}{}, nil
	})

	for _, test := range []struct {
		name     string
		priority int
		valid    bool
	}{
		{name: "Zero", priority: 0},
		{name: "Lowest", priority: 1, valid: true},
		{name: "Highest", priority: 5, valid: true},
		{name: "Above Highest", priority: 6},
	} {
		t.Run(test.name, func(t *testing.T) {
			mockRepo := &mocks.Repository{}
			testService := NewWishlistService(persistence.NopTransactor{}, registry, mockRepo)

			mockRepo.On("Get", mock.Anything, wishlistID).Return(&wishlist.Wishlist{}, nil)
			mockRepo.On("UpsertItem", mock.Anything, mock.AnythingOfType("wishlist.Item")).Return(func(_ context.Context, item wishlist.Item) *wishlist.Item {
				return &item
			}, nil)

			item, err := testService.AddItem(ctx, wishlistID, wishlist.AddItem{
				WishableType: string(record.KindProduct),
				WishableID:   productID,
				Priority:     test.priority,
			})
			if !test.valid {
				require.Error(t, err)
				assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))
				mockRepo.AssertNotCalled(t, "UpsertItem", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.priority, item.Priority)
			assert.Equal(t, record.KindProduct, item.WishableType)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestWishlistServiceAddItemTarget(t *testing.T) {
	ctx := context.Background()
	registry := record.NewRegistry()
	registry.Register(record.KindProduct, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "product %s does not exist", id)
	})

	t.Run("Unsupported Type", func(t *testing.T) {
		mockRepo := &mocks.Repository{}
		testService := NewWishlistService(persistence.NopTransactor{}, registry, mockRepo)

		_, err := testService.AddItem(ctx, uuid.Must(uuid.NewV4()), wishlist.AddItem{
			WishableType: string(record.KindCategory),
			WishableID:   uuid.Must(uuid.NewV4()),
			Priority:     3,
		})
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))
	})

	t.Run("Missing Target", func(t *testing.T) {
		mockRepo := &mocks.Repository{}
		testService := NewWishlistService(persistence.NopTransactor{}, registry, mockRepo)
		wishlistID := uuid.Must(uuid.NewV4())
		mockRepo.On("Get", mock.Anything, wishlistID).Return(&wishlist.Wishlist{}, nil)

		_, err := testService.AddItem(ctx, wishlistID, wishlist.AddItem{
			WishableType: string(record.KindProduct),
			WishableID:   uuid.Must(uuid.NewV4()),
			Priority:     3,
		})
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeNotFound, internal.CodeOf(err))
		mockRepo.AssertNotCalled(t, "UpsertItem", mock.Anything, mock.Anything)
	})
}
