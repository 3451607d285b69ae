package locale

import (
	"context"
	"errors"
	"strings"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
)

// Errors
var (
	ErrCurrencyDoesNotExist = errors.New("Currency does not exist")
	ErrCountryDoesNotExist  = errors.New("Country does not exist")
)

// Currency is an ISO 4217 currency
type Currency struct {
	internal.RandomID
	internal.Timestamps

	Code      string `json:"code" gorm:"uniqueIndex;size:3;not null" validate:"required,len=3,uppercase"`
	Name      string `json:"name" gorm:"size:64;not null" validate:"required,max=64"`
	Symbol    string `json:"symbol" gorm:"size:8" validate:"max=8"`
	IsActive  bool   `json:"is_active" gorm:"not null;default:true"`
	IsDefault bool   `json:"is_default" gorm:"not null;default:false"`
}

// Country is an ISO 3166-1 country and the currency it uses
type Country struct {
	internal.RandomID
	internal.Timestamps
	internal.Search

	Name       string    `json:"name" gorm:"uniqueIndex;size:128;not null" validate:"required,max=128"`
	Code       string    `json:"code" gorm:"index;size:2;not null" validate:"required,len=2,uppercase"`
	Language   string    `json:"language" gorm:"size:16" validate:"max=16"`
	CurrencyID uuid.UUID `json:"currency_id" gorm:"type:uuid;not null;index" validate:"required"`
	IsActive   bool      `json:"is_active" gorm:"not null;default:true"`

	Currency *Currency `json:"currency,omitempty" gorm:"foreignKey:CurrencyID"`
}

func (c Country) SearchDocument() string {
	return strings.Join([]string{c.Name, c.Code, c.Language}, " ")
}

type CreateCurrency struct {
	Code      string `json:"code" validate:"required,len=3,uppercase"`
	Name      string `json:"name" validate:"required,max=64"`
	Symbol    string `json:"symbol" validate:"max=8"`
	IsDefault bool   `json:"is_default"`
}

type CreateCountry struct {
	Name       string    `json:"name" validate:"required,max=128"`
	Code       string    `json:"code" validate:"required,len=2,uppercase"`
	Language   string    `json:"language" validate:"max=16"`
	CurrencyID uuid.UUID `json:"currency_id" validate:"required"`
}

type Repository interface {
	CreateCurrency(ctx context.Context, newCurrency *Currency) error
	GetCurrency(ctx context.Context, id uuid.UUID) (*Currency, error)
	ListCurrencies(ctx context.Context) ([]Currency, error)

	CreateCountry(ctx context.Context, newCountry *Country) error
	GetCountry(ctx context.Context, id uuid.UUID) (*Country, error)
	ListCountries(ctx context.Context) ([]Country, error)
	// SearchCountries matches query against name, code and language
	SearchCountries(ctx context.Context, query string, page internal.Page) ([]Country, error)
}

type Service interface {
	CreateCurrency(ctx context.Context, payload CreateCurrency) (*Currency, error)
	GetCurrency(ctx context.Context, id uuid.UUID) (*Currency, error)
	// ListCurrencies returns active currencies. The result is cached
	ListCurrencies(ctx context.Context) ([]Currency, error)

	CreateCountry(ctx context.Context, payload CreateCountry) (*Country, error)
	GetCountry(ctx context.Context, id uuid.UUID) (*Country, error)
	// ListCountries returns active countries. The result is cached
	ListCountries(ctx context.Context) ([]Country, error)
	SearchCountries(ctx context.Context, query string, page internal.Page) ([]Country, error)
}
