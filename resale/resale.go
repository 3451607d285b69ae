package resale

import (
	"context"
	"errors"
	"time"

	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Errors
var (
	ErrRequestDoesNotExist = errors.New("Resale request does not exist")
	ErrAlreadyRequested    = errors.New("Seller already requested this product")
	ErrNotPending          = errors.New("Only pending requests can change")
	ErrNotSupplier         = errors.New("Only the product's supplier can decide on a request")
	ErrNotSeller           = errors.New("Only the requesting seller can withdraw a request")
)

// Status of a request
type Status string

const (
	Pending  Status = "pending"
	Approved Status = "approved"
	Rejected Status = "rejected"
)

// Mode decides who approves a request
type Mode string

const (
	// Implicit requests are approved as soon as they are made
	Implicit Mode = "implicit"
	// Explicit requests wait for the supplier
	Explicit Mode = "explicit"
)

// Request is a seller asking to resell a supplier's product
type Request struct {
	internal.RandomID
	internal.Timestamps

	SellerAccountTypeInfoID uuid.UUID       `json:"seller_account_type_info_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_resale_request;<-:create"`
	SupplierAccountID       uuid.UUID       `json:"supplier_account_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_resale_request;<-:create"`
	ProductID               uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_resale_request;<-:create"`
	Mode                    Mode            `json:"mode" gorm:"size:16;not null;default:'implicit';index;<-:create"`
	RequestedQuantity       int             `json:"requested_quantity" gorm:"not null;check:chk_resale_request_quantity,requested_quantity > 0"`
	MarkupPercentage        decimal.Decimal `json:"markup_percentage" gorm:"type:numeric(6,2);not null;default:0"`
	Status                  Status          `json:"status" gorm:"size:16;not null;default:'pending';index"`
	Note                    *string         `json:"note,omitempty"`
	DecidedAt               *time.Time      `json:"decided_at,omitempty"`
	// ProductItemID is the listing created on approval
	ProductItemID *uuid.UUID `json:"product_item_id,omitempty" gorm:"type:uuid"`

	Product *catalog.Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (Request) TableName() string {
	return "product_item_requests"
}

type CreateRequest struct {
	SellerAccountTypeInfoID uuid.UUID       `json:"seller_account_type_info_id" validate:"required"`
	ProductID               uuid.UUID       `json:"product_id" validate:"required"`
	Mode                    Mode            `json:"mode" validate:"omitempty,oneof=implicit explicit"`
	RequestedQuantity       int             `json:"requested_quantity" validate:"gt=0"`
	MarkupPercentage        decimal.Decimal `json:"markup_percentage" validate:"gte=0,lte=1000"`
	Note                    *string         `json:"note" validate:"omitempty,max=1000"`
}

type Decide struct {
	SupplierAccountID uuid.UUID `json:"supplier_account_id" validate:"required"`
	Status            Status    `json:"status" validate:"required,oneof=approved rejected"`
	Note              *string   `json:"note" validate:"omitempty,max=1000"`
}

// Filter narrows List. Zero fields match everything
type Filter struct {
	SellerAccountTypeInfoID *uuid.UUID
	SupplierAccountID       *uuid.UUID
	ProductID               *uuid.UUID
	Status                  *Status
}

type Repository interface {
	Create(ctx context.Context, newRequest *Request) error
	Get(ctx context.Context, id uuid.UUID) (*Request, error)
	List(ctx context.Context, filter Filter, page internal.Page) ([]Request, error)
	// Transition applies changes only while the request is in from. It
	// reports whether the request moved
	Transition(ctx context.Context, id uuid.UUID, from Status, changes map[string]interface{}) (bool, error)
	// DeletePending removes the request while it is still pending
	DeletePending(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service interface {
	// Create files a request for the product's supplier. Implicit requests
	// are approved right away
	Create(ctx context.Context, payload CreateRequest) (*Request, error)
	Get(ctx context.Context, id uuid.UUID) (*Request, error)
	List(ctx context.Context, filter Filter, page internal.Page) ([]Request, error)
	// Decide approves or rejects a pending request. Approval lists the
	// product for the seller
	Decide(ctx context.Context, id uuid.UUID, payload Decide) (*Request, error)
	Withdraw(ctx context.Context, id uuid.UUID, sellerAccountTypeInfoID uuid.UUID) error
}
