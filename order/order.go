package order

import (
	"context"
	"errors"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Errors
var (
	ErrOrderDoesNotExist   = errors.New("Order does not exist")
	ErrEmptyCart           = errors.New("Cart has no items")
	ErrNotOrderable        = errors.New("Item is not available for purchase")
	ErrCurrencyMismatch    = errors.New("Every item of an order must share its currency")
	ErrInvalidTransition   = errors.New("Order cannot move to the requested status")
	ErrInvoiceVoid         = errors.New("Invoice has been voided")
	ErrOverpayment         = errors.New("Payment exceeds the outstanding amount")
	ErrNonPositivePayment  = errors.New("Payment amount must be positive")
	ErrMissingRecipient    = errors.New("Guest orders need an email address")
	ErrInvoiceDoesNotExist = errors.New("Invoice does not exist")
)

// Status of an order
type Status string

const (
	Pending    Status = "pending"
	Confirmed  Status = "confirmed"
	Processing Status = "processing"
	Shipped    Status = "shipped"
	Delivered  Status = "delivered"
	Cancelled  Status = "cancelled"
	Refunded   Status = "refunded"
)

var transitions = map[Status][]Status{
	Pending:    {Confirmed, Cancelled},
	Confirmed:  {Processing, Cancelled},
	Processing: {Shipped, Cancelled},
	Shipped:    {Delivered},
	Delivered:  {Refunded},
}

// CanMoveTo reports whether an order in s may move to next
func (s Status) CanMoveTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoldsReservation reports whether stock is still reserved for an order in s
func (s Status) HoldsReservation() bool {
	return s == Pending || s == Confirmed || s == Processing
}

// InvoiceStatus of an invoice
type InvoiceStatus string

const (
	Unpaid        InvoiceStatus = "unpaid"
	PartiallyPaid InvoiceStatus = "partially_paid"
	Paid          InvoiceStatus = "paid"
	Void          InvoiceStatus = "void"
)

// Order is a placed cart
type Order struct {
	internal.SortableID
	internal.Timestamps
	internal.Friendly

	AccountTypeInfoID *uuid.UUID      `json:"account_type_info_id,omitempty" gorm:"type:uuid;index;check:chk_order_owner,account_type_info_id IS NOT NULL OR session_id IS NOT NULL"`
	SessionID         *string         `json:"-" gorm:"size:64;index"`
	Email             *string         `json:"email,omitempty" gorm:"size:255"`
	OrderTag          string          `json:"order_tag" gorm:"size:32;not null;uniqueIndex;<-:create"`
	Status            Status          `json:"status" gorm:"size:16;not null;default:'pending';index"`
	Total             decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null;check:chk_order_total,total >= 0"`
	CurrencyID        uuid.UUID       `json:"currency_id" gorm:"type:uuid;not null"`
	Notes             *string         `json:"notes,omitempty"`

	Items   []Item   `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Invoice *Invoice `json:"invoice,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) Kind() string {
	return string(record.KindOrder)
}

// Item is one priced line of an order
type Item struct {
	internal.SortableID
	internal.Timestamps

	OrderID       uuid.UUID   `json:"order_id" gorm:"type:uuid;not null;index;<-:create"`
	OrderableType record.Kind `json:"orderable_type" gorm:"size:32;not null;<-:create"`
	OrderableID   uuid.UUID   `json:"orderable_id" gorm:"type:uuid;not null;<-:create"`
	Name          string      `json:"name" gorm:"size:255;not null;<-:create"`
	Quantity      int         `json:"quantity" gorm:"not null;check:chk_order_item_quantity,quantity >= 1;<-:create"`
	// ReservedQuantity is the stock held for the line when it was placed.
	// Untracked orderables hold none
	ReservedQuantity int             `json:"reserved_quantity" gorm:"not null;default:0;check:chk_order_item_reserved,reserved_quantity >= 0 AND reserved_quantity <= quantity;<-:create"`
	UnitPrice        decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null;<-:create"`
	Subtotal         decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null;<-:create"`
	Tax              decimal.Decimal `json:"tax" gorm:"type:numeric(12,2);not null;default:0;<-:create"`
	Discount         decimal.Decimal `json:"discount" gorm:"type:numeric(12,2);not null;default:0;<-:create"`
	Total            decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null;<-:create"`
}

func (Item) TableName() string {
	return "order_items"
}

// Target returns the orderable of the line
func (i Item) Target() record.Ref {
	return record.Ref{Type: i.OrderableType, ID: i.OrderableID}
}

// Invoice is the bill of an order
type Invoice struct {
	internal.RandomID
	internal.Timestamps

	OrderID    uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;uniqueIndex;<-:create"`
	InvoiceTag string          `json:"invoice_tag" gorm:"size:32;not null;uniqueIndex;<-:create"`
	Subtotal   decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	Tax        decimal.Decimal `json:"tax" gorm:"type:numeric(12,2);not null;default:0"`
	Discount   decimal.Decimal `json:"discount" gorm:"type:numeric(12,2);not null;default:0"`
	Total      decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null"`
	AmountPaid decimal.Decimal `json:"amount_paid" gorm:"type:numeric(12,2);not null;default:0;check:chk_invoice_amount_paid,amount_paid >= 0 AND amount_paid <= total"`
	Status     InvoiceStatus   `json:"status" gorm:"size:16;not null;default:'unpaid'"`
}

func (Invoice) TableName() string {
	return "order_invoices"
}

// Outstanding is what is left to pay
func (i Invoice) Outstanding() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}

type PlaceOrder struct {
	CartID     uuid.UUID `json:"cart_id" validate:"required"`
	CurrencyID uuid.UUID `json:"currency_id" validate:"required"`
	// Email receives the confirmation of guest orders
	Email *string `json:"email" validate:"omitempty,email"`
	Notes *string `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateStatus struct {
	Status Status `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
}

type RecordPayment struct {
	Amount decimal.Decimal `json:"amount"`
}

type Repository interface {
	Create(ctx context.Context, newOrder *Order) error
	CreateItems(ctx context.Context, items []Item) error
	CreateInvoice(ctx context.Context, invoice *Invoice) error
	// Get loads the order with its items and invoice
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByFriendlyID(ctx context.Context, friendlyID string) (*Order, error)
	// GetForUpdate loads the order and locks it for the rest of the
	// transaction
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	ListFor(ctx context.Context, accountTypeInfoID uuid.UUID, page internal.Page) ([]Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Order, error)

	GetInvoiceForUpdate(ctx context.Context, orderID uuid.UUID) (*Invoice, error)
	UpdateInvoice(ctx context.Context, invoice *Invoice) error
}

type Service interface {
	// PlaceFromCart prices the cart, reserves stock, writes the order with
	// its items and invoice, empties the cart and queues a confirmation
	// email. Everything commits together
	PlaceFromCart(ctx context.Context, payload PlaceOrder) (*Order, error)
	// Get finds an order by id or friendly id
	Get(ctx context.Context, id string) (*Order, error)
	ListFor(ctx context.Context, accountTypeInfoID uuid.UUID, page internal.Page) ([]Order, error)
	// UpdateStatus moves an order along its lifecycle. Cancelling releases
	// reserved stock and shipping turns it into a stock_out
	UpdateStatus(ctx context.Context, id uuid.UUID, payload UpdateStatus) (*Order, error)
	RecordPayment(ctx context.Context, id uuid.UUID, payload RecordPayment) (*Invoice, error)
}
