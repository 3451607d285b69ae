package wishlist

import (
	"context"
	"errors"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
)

// DefaultName is the name of the wishlist every profile gets on demand
const DefaultName = "Default"

// Errors
var (
	ErrWishlistDoesNotExist     = errors.New("Wishlist does not exist")
	ErrWishlistItemDoesNotExist = errors.New("Wishlist item does not exist")
)

type Wishlist struct {
	internal.RandomID
	internal.Timestamps
	internal.Friendly

	AccountTypeInfoID uuid.UUID `json:"account_type_info_id" gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_owner_name"`
	Name              string    `json:"name" gorm:"size:64;not null;uniqueIndex:idx_wishlist_owner_name"`
	IsDefault         bool      `json:"is_default" gorm:"not null;default:false"`

	Items []Item `json:"items" gorm:"foreignKey:WishlistID"`
}

func (Wishlist) Kind() string {
	return "wishlist"
}

type Item struct {
	internal.RandomID
	internal.Timestamps

	WishlistID   uuid.UUID   `json:"wishlist_id" gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_item_wishable"`
	WishableType record.Kind `json:"wishable_type" gorm:"size:32;not null;uniqueIndex:idx_wishlist_item_wishable"`
	WishableID   uuid.UUID   `json:"wishable_id" gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_item_wishable"`
	Priority     int         `json:"priority" gorm:"not null;default:3;check:chk_wishlist_item_priority,priority BETWEEN 1 AND 5"`
	Notes        *string     `json:"notes,omitempty" gorm:"size:512"`

	Wishable interface{} `json:"wishable,omitempty" gorm:"-"`
}

func (Item) TableName() string {
	return "wishlist_items"
}

func (i Item) Target() record.Ref {
	return record.Ref{Type: i.WishableType, ID: i.WishableID}
}

type Create struct {
	AccountTypeInfoID uuid.UUID `json:"account_type_info_id" validate:"required"`
	Name              string    `json:"name" validate:"required,min=1,max=64"`
}

type AddItem struct {
	WishableType string    `json:"wishable_type" validate:"required"`
	WishableID   uuid.UUID `json:"wishable_id" validate:"required"`
	Priority     int       `json:"priority" validate:"min=1,max=5"`
	Notes        *string   `json:"notes" validate:"omitempty,max=512"`
}

type Repository interface {
	Create(ctx context.Context, newWishlist Wishlist) (*Wishlist, error)
	Get(ctx context.Context, id uuid.UUID) (*Wishlist, error)
	GetByFriendlyID(ctx context.Context, friendlyID string) (*Wishlist, error)
	FindOrCreateDefault(ctx context.Context, accountTypeInfoID uuid.UUID) (*Wishlist, error)
	ListFor(ctx context.Context, accountTypeInfoID uuid.UUID) ([]Wishlist, error)

	ListItems(ctx context.Context, wishlistID uuid.UUID) ([]Item, error)
	// UpsertItem adds target to the wishlist or updates the priority and
	// notes of the existing line
	UpsertItem(ctx context.Context, item Item) (*Item, error)
	DeleteItem(ctx context.Context, wishlistID uuid.UUID, itemID uuid.UUID) error
}

type Service interface {
	Create(ctx context.Context, payload Create) (*Wishlist, error)
	// GetOrCreateDefault returns the default wishlist of a profile
	GetOrCreateDefault(ctx context.Context, accountTypeInfoID uuid.UUID) (*Wishlist, error)
	// Get finds a wishlist by id or friendly id with its items and their
	// targets loaded
	Get(ctx context.Context, id string) (*Wishlist, error)
	ListFor(ctx context.Context, accountTypeInfoID uuid.UUID) ([]Wishlist, error)
	AddItem(ctx context.Context, wishlistID uuid.UUID, payload AddItem) (*Item, error)
	RemoveItem(ctx context.Context, wishlistID uuid.UUID, itemID uuid.UUID) error
}
