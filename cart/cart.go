package cart

import (
	"context"
	"errors"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
)

// Errors
var (
	ErrCartDoesNotExist     = errors.New("Cart does not exist")
	ErrCartItemDoesNotExist = errors.New("Cart item does not exist")
	ErrInsufficientStock    = errors.New("Not enough stock available")
	ErrCartExists           = errors.New("Owner already has a cart")
)

// Cart belongs to either a profile or a guest session
type Cart struct {
	internal.RandomID
	internal.Timestamps
	internal.Friendly

	AccountTypeInfoID *uuid.UUID `json:"account_type_info_id,omitempty" gorm:"type:uuid;uniqueIndex;check:chk_cart_owner,account_type_info_id IS NOT NULL OR session_id IS NOT NULL"`
	SessionID         *string    `json:"-" gorm:"size:64;uniqueIndex"`

	Items []Item `json:"items" gorm:"foreignKey:CartID"`
}

func (Cart) Kind() string {
	return "cart"
}

// Owner returns the conditions identifying the owner of the cart
func (c Cart) Owner() Owner {
	return Owner{AccountTypeInfoID: c.AccountTypeInfoID, SessionID: c.SessionID}
}

// Item is one line of a cart
type Item struct {
	internal.RandomID
	internal.Timestamps

	CartID       uuid.UUID   `json:"cart_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_cartable"`
	CartableType record.Kind `json:"cartable_type" gorm:"size:32;not null;uniqueIndex:idx_cart_item_cartable"`
	CartableID   uuid.UUID   `json:"cartable_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_cartable"`
	Quantity     int         `json:"quantity" gorm:"not null;check:chk_cart_item_quantity,quantity >= 1"`

	// Cartable is the hydrated target of the line
	Cartable interface{} `json:"cartable,omitempty" gorm:"-"`
}

func (Item) TableName() string {
	return "cart_items"
}

// Target returns the cartable of the line
func (i Item) Target() record.Ref {
	return record.Ref{Type: i.CartableType, ID: i.CartableID}
}

// Owner identifies who a cart belongs to. Exactly one of the fields is set
type Owner struct {
	AccountTypeInfoID *uuid.UUID `json:"account_type_info_id"`
	SessionID         *string    `json:"-"`
}

// Valid reports whether exactly one owner is set
func (o Owner) Valid() bool {
	return (o.AccountTypeInfoID == nil) != (o.SessionID == nil)
}

type AddItem struct {
	CartableType string    `json:"cartable_type" validate:"required"`
	CartableID   uuid.UUID `json:"cartable_id" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required,min=1,max=1000"`
}

type UpdateItem struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=1000"`
}

type Repository interface {
	// FindOrCreate returns the cart of owner, creating it when missing. Safe
	// to call concurrently for one owner
	FindOrCreate(ctx context.Context, owner Owner) (*Cart, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*Cart, error)
	GetByFriendlyID(ctx context.Context, friendlyID string) (*Cart, error)
	GetByOwner(ctx context.Context, owner Owner) (*Cart, error)
	// Adopt moves a guest cart over to a profile
	Adopt(ctx context.Context, id uuid.UUID, accountTypeInfoID uuid.UUID) error
	Touch(ctx context.Context, id uuid.UUID) error

	ListItems(ctx context.Context, cartID uuid.UUID) ([]Item, error)
	GetItem(ctx context.Context, cartID uuid.UUID, itemID uuid.UUID) (*Item, error)
	// GetItemForUpdate loads a line and locks it for the rest of the
	// transaction
	GetItemForUpdate(ctx context.Context, cartID uuid.UUID, itemID uuid.UUID) (*Item, error)
	// FindOrCreateItem returns the line for target, creating it with
	// quantity when missing
	FindOrCreateItem(ctx context.Context, cartID uuid.UUID, target record.Ref, quantity int) (*Item, bool, error)
	SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*Item, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
}

type Service interface {
	// Create creates the cart of owner. Each owner has at most one cart
	Create(ctx context.Context, owner Owner) (*Cart, error)
	// GetOrCreate returns the cart of owner with its items loaded, creating
	// an empty one when missing
	GetOrCreate(ctx context.Context, owner Owner) (*Cart, error)
	// Get finds a cart by id or friendly id with its items and their
	// targets loaded
	Get(ctx context.Context, id string) (*Cart, error)
	GetByOwner(ctx context.Context, owner Owner) (*Cart, error)
	// Merge moves the lines of the guest cart of sessionID into the cart of
	// accountTypeInfoID
	Merge(ctx context.Context, sessionID string, accountTypeInfoID uuid.UUID) (*Cart, error)

	// AddItem adds quantity of a cartable. Adding a cartable that is already
	// in the cart increases its quantity
	AddItem(ctx context.Context, cartID uuid.UUID, payload AddItem) (*Item, error)
	UpdateItem(ctx context.Context, cartID uuid.UUID, itemID uuid.UUID, payload UpdateItem) (*Item, error)
	RemoveItem(ctx context.Context, cartID uuid.UUID, itemID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}
