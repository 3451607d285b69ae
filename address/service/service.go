package service

import (
	"context"

	"github.com/RagOfJoes/bloom/address"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
)

type service struct {
	tx       persistence.Transactor
	registry *record.Registry
	ar       address.Repository
}

func NewAddressService(tx persistence.Transactor, registry *record.Registry, ar address.Repository) address.Service {
	return &service{
		tx:       tx,
		registry: registry,
		ar:       ar,
	}
}

func (s *service) Create(ctx context.Context, payload address.CreateAddress) (*address.Address, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	owner, err := record.Addressable.Ref(payload.AddressableType, payload.AddressableID)
	if err != nil {
		return nil, err
	}

	newAddress := address.Address{
		AddressableType: owner.Type,
		AddressableID:   owner.ID,
		CountryID:       payload.CountryID,
		PhoneNumber:     payload.PhoneNumber,
		Line1:           payload.Line1,
		Line2:           payload.Line2,
		City:            payload.City,
		State:           payload.State,
		PostalCode:      payload.PostalCode,
		IsDefault:       payload.IsDefault,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.registry.Exists(ctx, record.Addressable, owner); err != nil {
			return err
		}
		if newAddress.IsDefault {
			if err := s.ar.ClearDefault(ctx, owner); err != nil {
				return err
			}
		}
		return s.ar.Create(ctx, &newAddress)
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to create address for %s", owner)
	}
	return &newAddress, nil
}

func (s *service) ListFor(ctx context.Context, owner record.Ref) ([]address.Address, error) {
	addresses, err := s.ar.ListFor(ctx, owner)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list addresses of %s", owner)
	}
	return addresses, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.ar.Delete(ctx, id); err != nil {
		return persistence.Translate(err, "Failed to delete address %s", id)
	}
	return nil
}
