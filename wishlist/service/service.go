package service

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/wishlist"
	"github.com/gofrs/uuid/v5"
)

type service struct {
	tx       persistence.Transactor
	registry *record.Registry
	wr       wishlist.Repository
}

func NewWishlistService(tx persistence.Transactor, registry *record.Registry, wr wishlist.Repository) wishlist.Service {
	return &service{
		tx:       tx,
		registry: registry,
		wr:       wr,
	}
}

func (s *service) Create(ctx context.Context, payload wishlist.Create) (*wishlist.Wishlist, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	created, err := s.wr.Create(ctx, wishlist.Wishlist{
		AccountTypeInfoID: payload.AccountTypeInfoID,
		Name:              payload.Name,
		IsDefault:         payload.Name == wishlist.DefaultName,
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to create wishlist %q", payload.Name)
	}
	created.Items = []wishlist.Item{}
	return created, nil
}

func (s *service) GetOrCreateDefault(ctx context.Context, accountTypeInfoID uuid.UUID) (*wishlist.Wishlist, error) {
	found, err := s.wr.FindOrCreateDefault(ctx, accountTypeInfoID)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to load default wishlist")
	}
	if err := s.hydrate(ctx, found); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *service) Get(ctx context.Context, id string) (*wishlist.Wishlist, error) {
	var (
		found *wishlist.Wishlist
		err   error
	)
	if internal.IsFriendlyID(id) {
		found, err = s.wr.GetByFriendlyID(ctx, id)
	} else if parsed, perr := uuid.FromString(id); perr == nil {
		found, err = s.wr.Get(ctx, parsed)
	} else {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "id must be a UUID or a friendly id")
	}
	if err != nil {
		return nil, persistence.Translate(err, "%v: %s", wishlist.ErrWishlistDoesNotExist, id)
	}
	if err := s.hydrate(ctx, found); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *service) hydrate(ctx context.Context, w *wishlist.Wishlist) error {
	items, err := s.wr.ListItems(ctx, w.ID)
	if err != nil {
		return persistence.Translate(err, "Failed to load items of wishlist %s", w.ID)
	}
	for i := range items {
		target, err := s.registry.Resolve(ctx, record.Wishable, items[i].Target())
		if err != nil {
			if internal.IsCode(err, internal.ErrorCodeNotFound) {
				continue
			}
			return err
		}
		items[i].Wishable = target
	}
	if items == nil {
		items = []wishlist.Item{}
	}
	w.Items = items
	return nil
}

func (s *service) ListFor(ctx context.Context, accountTypeInfoID uuid.UUID) ([]wishlist.Wishlist, error) {
	found, err := s.wr.ListFor(ctx, accountTypeInfoID)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list wishlists")
	}
	return found, nil
}

func (s *service) AddItem(ctx context.Context, wishlistID uuid.UUID, payload wishlist.AddItem) (*wishlist.Item, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	target, err := record.Wishable.Ref(payload.WishableType, payload.WishableID)
	if err != nil {
		return nil, err
	}

	var item *wishlist.Item
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.wr.Get(ctx, wishlistID); err != nil {
			return internal.WrapErrorf(err, internal.CodeOf(err), "%v", wishlist.ErrWishlistDoesNotExist)
		}
		if err := s.registry.Exists(ctx, record.Wishable, target); err != nil {
			return err
		}
		item, err = s.wr.UpsertItem(ctx, wishlist.Item{
			WishlistID:   wishlistID,
			WishableType: target.Type,
			WishableID:   target.ID,
			Priority:     payload.Priority,
			Notes:        payload.Notes,
		})
		return err
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to add %s to wishlist %s", target, wishlistID)
	}
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, wishlistID uuid.UUID, itemID uuid.UUID) error {
	if err := s.wr.DeleteItem(ctx, wishlistID, itemID); err != nil {
		return persistence.Translate(err, "%v: %s", wishlist.ErrWishlistItemDoesNotExist, itemID)
	}
	return nil
}
