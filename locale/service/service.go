package service

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/cache"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/locale"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
)

const (
	currenciesKey = "locale:currencies"
	countriesKey  = "locale:countries"
)

type service struct {
	ttl   time.Duration
	log   zerolog.Logger
	cache cache.Cache
	lr    locale.Repository
}

func NewLocaleService(ttl time.Duration, c cache.Cache, log zerolog.Logger, lr locale.Repository) locale.Service {
	return &service{
		ttl:   ttl,
		log:   log,
		cache: c,
		lr:    lr,
	}
}

func (s *service) CreateCurrency(ctx context.Context, payload locale.CreateCurrency) (*locale.Currency, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	newCurrency := locale.Currency{
		Code:      payload.Code,
		Name:      payload.Name,
		Symbol:    payload.Symbol,
		IsActive:  true,
		IsDefault: payload.IsDefault,
	}
	if err := s.lr.CreateCurrency(ctx, &newCurrency); err != nil {
		return nil, persistence.Translate(err, "Failed to create currency %s", payload.Code)
	}
	s.evict(ctx, currenciesKey)
	return &newCurrency, nil
}

func (s *service) GetCurrency(ctx context.Context, id uuid.UUID) (*locale.Currency, error) {
	found, err := s.lr.GetCurrency(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", locale.ErrCurrencyDoesNotExist)
	}
	return found, nil
}

func (s *service) ListCurrencies(ctx context.Context) ([]locale.Currency, error) {
	var cached []locale.Currency
	if s.lookup(ctx, currenciesKey, &cached) {
		return cached, nil
	}
	currencies, err := s.lr.ListCurrencies(ctx)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list currencies")
	}
	s.store(ctx, currenciesKey, currencies)
	return currencies, nil
}

func (s *service) CreateCountry(ctx context.Context, payload locale.CreateCountry) (*locale.Country, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	if _, err := s.lr.GetCurrency(ctx, payload.CurrencyID); err != nil {
		if persistence.IsNotFound(err) {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "%v", locale.ErrCurrencyDoesNotExist)
		}
		return nil, persistence.Translate(err, "Failed to retrieve currency %s", payload.CurrencyID)
	}
	newCountry := locale.Country{
		Name:       payload.Name,
		Code:       payload.Code,
		Language:   payload.Language,
		CurrencyID: payload.CurrencyID,
		IsActive:   true,
	}
	if err := s.lr.CreateCountry(ctx, &newCountry); err != nil {
		return nil, persistence.Translate(err, "Failed to create country %s", payload.Name)
	}
	s.evict(ctx, countriesKey)
	return &newCountry, nil
}

func (s *service) GetCountry(ctx context.Context, id uuid.UUID) (*locale.Country, error) {
	found, err := s.lr.GetCountry(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", locale.ErrCountryDoesNotExist)
	}
	return found, nil
}

func (s *service) ListCountries(ctx context.Context) ([]locale.Country, error) {
	var cached []locale.Country
	if s.lookup(ctx, countriesKey, &cached) {
		return cached, nil
	}
	countries, err := s.lr.ListCountries(ctx)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list countries")
	}
	s.store(ctx, countriesKey, countries)
	return countries, nil
}

func (s *service) SearchCountries(ctx context.Context, query string, page internal.Page) ([]locale.Country, error) {
	countries, err := s.lr.SearchCountries(ctx, query, page)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to search countries")
	}
	return countries, nil
}

// Cache failures only cost a round trip to the store, so they're logged and
// otherwise ignored
func (s *service) lookup(ctx context.Context, key string, dst interface{}) bool {
	found, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	return found
}

func (s *service) store(ctx context.Context, key string, v interface{}) {
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *service) evict(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache eviction failed")
	}
}
