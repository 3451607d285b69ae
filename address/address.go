package address

import (
	"context"
	"errors"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
)

// Errors
var (
	ErrAddressDoesNotExist = errors.New("Address does not exist")
)

// Address is a postal address owned by a profile or an order
type Address struct {
	internal.RandomID
	internal.Timestamps
	internal.SoftDelete

	AddressableType record.Kind `json:"addressable_type" gorm:"size:32;not null;index:idx_address_addressable"`
	AddressableID   uuid.UUID   `json:"addressable_id" gorm:"type:uuid;not null;index:idx_address_addressable"`
	CountryID       uuid.UUID   `json:"country_id" gorm:"type:uuid;not null;index"`
	PhoneNumber     *string     `json:"phone_number,omitempty" gorm:"size:32"`
	Line1           string      `json:"line1" gorm:"not null"`
	Line2           *string     `json:"line2,omitempty"`
	City            string      `json:"city" gorm:"size:128;not null"`
	State           string      `json:"state" gorm:"size:128;not null"`
	PostalCode      *string     `json:"postal_code,omitempty" gorm:"size:16"`
	IsDefault       bool        `json:"is_default" gorm:"not null;default:false"`
}

// Addressable returns the owner of the address
func (a Address) Addressable() record.Ref {
	return record.Ref{Type: a.AddressableType, ID: a.AddressableID}
}

type CreateAddress struct {
	AddressableType string    `json:"addressable_type" validate:"required"`
	AddressableID   uuid.UUID `json:"addressable_id" validate:"required"`
	CountryID       uuid.UUID `json:"country_id" validate:"required"`
	PhoneNumber     *string   `json:"phone_number" validate:"omitempty,e164"`
	Line1           string    `json:"line1" validate:"required,max=255"`
	Line2           *string   `json:"line2" validate:"omitempty,max=255"`
	City            string    `json:"city" validate:"required,max=128"`
	State           string    `json:"state" validate:"required,max=128"`
	PostalCode      *string   `json:"postal_code" validate:"omitempty,max=16"`
	IsDefault       bool      `json:"is_default"`
}

type Repository interface {
	Create(ctx context.Context, newAddress *Address) error
	Get(ctx context.Context, id uuid.UUID) (*Address, error)
	ListFor(ctx context.Context, owner record.Ref) ([]Address, error)
	// ClearDefault unsets is_default on every address of owner
	ClearDefault(ctx context.Context, owner record.Ref) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	// Create stores an address for an existing addressable. Marking it as
	// default unsets the previous default of the same owner
	Create(ctx context.Context, payload CreateAddress) (*Address, error)
	ListFor(ctx context.Context, owner record.Ref) ([]Address, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
