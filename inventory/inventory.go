package inventory

import (
	"context"
	"errors"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
)

// Errors
var (
	ErrInventoryDoesNotExist = errors.New("Inventory does not exist")
	ErrNegativeStock         = errors.New("Quantity in stock cannot go below zero")
	ErrStockBelowReserved    = errors.New("Quantity in stock cannot go below reserved stock")
	ErrInsufficientStock     = errors.New("Not enough stock available")
	ErrInvalidRelease        = errors.New("Cannot release more than is reserved")
	ErrZeroQuantity          = errors.New("Quantity must not be zero")
)

// ActionType describes why stock changed
type ActionType string

const (
	StockIn    ActionType = "stock_in"
	StockOut   ActionType = "stock_out"
	Adjustment ActionType = "adjustment"
	Transfer   ActionType = "transfer"
	Damaged    ActionType = "damaged"
	Returned   ActionType = "returned"
)

// Inventory holds the stock counters of one inventoriable
type Inventory struct {
	internal.RandomID
	internal.Timestamps

	InventoriableType record.Kind `json:"inventoriable_type" gorm:"size:32;not null;uniqueIndex:idx_inventory_inventoriable"`
	InventoriableID   uuid.UUID   `json:"inventoriable_id" gorm:"type:uuid;not null;uniqueIndex:idx_inventory_inventoriable"`
	QuantityInStock   int         `json:"quantity_in_stock" gorm:"not null;default:0;check:chk_inventory_in_stock,quantity_in_stock >= 0"`
	ReservedStock     int         `json:"reserved_stock" gorm:"not null;default:0;check:chk_inventory_reserved,reserved_stock >= 0 AND reserved_stock <= quantity_in_stock"`
	ReorderLevel      int         `json:"reorder_level" gorm:"not null;default:0"`
}

// Available is the stock that can still be sold
func (i Inventory) Available() int {
	return i.QuantityInStock - i.ReservedStock
}

// NeedsReorder reports whether available stock dropped to the reorder level
func (i Inventory) NeedsReorder() bool {
	return i.ReorderLevel > 0 && i.Available() <= i.ReorderLevel
}

// Inventoriable returns the target of the inventory
func (i Inventory) Inventoriable() record.Ref {
	return record.Ref{Type: i.InventoriableType, ID: i.InventoriableID}
}

// Action is an append-only entry of the stock ledger
type Action struct {
	internal.SortableID
	internal.Timestamps

	InventoryID uuid.UUID  `json:"inventory_id" gorm:"type:uuid;not null;index;<-:create"`
	ActionType  ActionType `json:"action_type" gorm:"size:16;not null;index;<-:create"`
	Quantity    int        `json:"quantity" gorm:"not null;<-:create"`
	Reason      *string    `json:"reason,omitempty" gorm:"<-:create"`
	PerformedBy *uuid.UUID `json:"performed_by,omitempty" gorm:"type:uuid;<-:create"`
}

func (Action) TableName() string {
	return "inventory_actions"
}

// ApplyAction is a signed change of quantity in stock
type ApplyAction struct {
	ActionType  ActionType `json:"action_type" validate:"required,oneof=stock_in stock_out adjustment transfer damaged returned"`
	Quantity    int        `json:"quantity" validate:"ne=0"`
	Reason      *string    `json:"reason" validate:"omitempty,max=500"`
	PerformedBy *uuid.UUID `json:"performed_by"`
}

type Repository interface {
	// GetOrCreateForUpdate returns the inventory of target, creating it when
	// missing, and locks the row for the rest of the transaction
	GetOrCreateForUpdate(ctx context.Context, target record.Ref) (*Inventory, error)
	GetByTarget(ctx context.Context, target record.Ref) (*Inventory, error)
	Get(ctx context.Context, id uuid.UUID) (*Inventory, error)
	SaveCounters(ctx context.Context, inv *Inventory) error
	SetReorderLevel(ctx context.Context, id uuid.UUID, level int) (*Inventory, error)

	AppendAction(ctx context.Context, action *Action) error
	// ListActions returns the ledger of an inventory, oldest first. A nil
	// actionType lists every type
	ListActions(ctx context.Context, inventoryID uuid.UUID, actionType *ActionType, page internal.Page) ([]Action, error)
}

type Service interface {
	// ApplyAction changes the stock of target and appends to its ledger in
	// one transaction. Results below zero or below the reserved stock are
	// rejected and leave both untouched
	ApplyAction(ctx context.Context, target record.Ref, payload ApplyAction) (*Inventory, *Action, error)
	// Reserve holds quantity of the available stock
	Reserve(ctx context.Context, target record.Ref, quantity int) (*Inventory, error)
	// Release returns quantity of the reserved stock
	Release(ctx context.Context, target record.Ref, quantity int) (*Inventory, error)
	// Fulfil turns quantity of reserved stock into a stock_out
	Fulfil(ctx context.Context, target record.Ref, quantity int, reason string) (*Inventory, error)
	Get(ctx context.Context, target record.Ref) (*Inventory, error)
	SetReorderLevel(ctx context.Context, target record.Ref, level int) (*Inventory, error)
	Actions(ctx context.Context, inventoryID uuid.UUID, actionType *ActionType, page internal.Page) ([]Action, error)
}
