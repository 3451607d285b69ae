package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/locale"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

type gormLocaleRepository struct {
	currencies persistence.Repository[locale.Currency]
	countries  persistence.Repository[locale.Country]
}

func NewGormLocaleRepository(d *gorm.DB) locale.Repository {
	return &gormLocaleRepository{
		currencies: persistence.NewRepository[locale.Currency](d),
		countries:  persistence.NewRepository[locale.Country](d),
	}
}

func (g *gormLocaleRepository) CreateCurrency(ctx context.Context, newCurrency *locale.Currency) error {
	return g.currencies.Create(ctx, newCurrency)
}

func (g *gormLocaleRepository) GetCurrency(ctx context.Context, id uuid.UUID) (*locale.Currency, error) {
	return g.currencies.Get(ctx, id)
}

func (g *gormLocaleRepository) ListCurrencies(ctx context.Context) ([]locale.Currency, error) {
	return g.currencies.Find(ctx, map[string]interface{}{"is_active": true}, persistence.OrderBy("is_default DESC, code"))
}

func (g *gormLocaleRepository) CreateCountry(ctx context.Context, newCountry *locale.Country) error {
	return g.countries.Create(ctx, newCountry)
}

func (g *gormLocaleRepository) GetCountry(ctx context.Context, id uuid.UUID) (*locale.Country, error) {
	return g.countries.Get(ctx, id, persistence.Preload("Currency"))
}

func (g *gormLocaleRepository) ListCountries(ctx context.Context) ([]locale.Country, error) {
	return g.countries.Find(ctx, map[string]interface{}{"is_active": true}, persistence.Preload("Currency"), persistence.OrderBy("name"))
}

func (g *gormLocaleRepository) SearchCountries(ctx context.Context, query string, page internal.Page) ([]locale.Country, error) {
	return g.countries.Search(ctx, query, page, persistence.Where("is_active = ?", true))
}
