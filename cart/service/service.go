package service

import (
	"context"

	"github.com/RagOfJoes/bloom/cart"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/inventory"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
)

type service struct {
	tx       persistence.Transactor
	registry *record.Registry
	is       inventory.Service
	cr       cart.Repository
}

func NewCartService(tx persistence.Transactor, registry *record.Registry, is inventory.Service, cr cart.Repository) cart.Service {
	return &service{
		tx:       tx,
		registry: registry,
		is:       is,
		cr:       cr,
	}
}

func (s *service) Create(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	if !owner.Valid() {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", internal.ErrMissingOwner)
	}
	found, created, err := s.cr.FindOrCreate(ctx, owner)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to create cart")
	}
	if !created {
		return nil, internal.NewErrorf(internal.ErrorCodeConflict, "%v", cart.ErrCartExists)
	}
	found.Items = []cart.Item{}
	return found, nil
}

func (s *service) GetOrCreate(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	if !owner.Valid() {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", internal.ErrMissingOwner)
	}
	found, _, err := s.cr.FindOrCreate(ctx, owner)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to create cart")
	}
	if err := s.hydrate(ctx, found); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *service) Get(ctx context.Context, id string) (*cart.Cart, error) {
	var (
		found *cart.Cart
		err   error
	)
	if internal.IsFriendlyID(id) {
		found, err = s.cr.GetByFriendlyID(ctx, id)
	} else if parsed, perr := uuid.FromString(id); perr == nil {
		found, err = s.cr.Get(ctx, parsed)
	} else {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "id must be a UUID or a friendly id")
	}
	if err != nil {
		return nil, persistence.Translate(err, "%v: %s", cart.ErrCartDoesNotExist, id)
	}
	if err := s.hydrate(ctx, found); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *service) GetByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	found, err := s.cr.GetByOwner(ctx, owner)
	if err != nil {
		return nil, persistence.Translate(err, "%v", cart.ErrCartDoesNotExist)
	}
	if err := s.hydrate(ctx, found); err != nil {
		return nil, err
	}
	return found, nil
}

// hydrate loads the lines of c and the records they point to. Lines whose
// target is gone are kept with an empty cartable
func (s *service) hydrate(ctx context.Context, c *cart.Cart) error {
	items, err := s.cr.ListItems(ctx, c.ID)
	if err != nil {
		return persistence.Translate(err, "Failed to load items of cart %s", c.ID)
	}
	for i := range items {
		target, err := s.registry.Resolve(ctx, record.Cartable, items[i].Target())
		if err != nil {
			if internal.IsCode(err, internal.ErrorCodeNotFound) {
				continue
			}
			return err
		}
		items[i].Cartable = target
	}
	if items == nil {
		items = []cart.Item{}
	}
	c.Items = items
	return nil
}

func (s *service) Merge(ctx context.Context, sessionID string, accountTypeInfoID uuid.UUID) (*cart.Cart, error) {
	var merged *cart.Cart
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		guest, err := s.cr.GetByOwner(ctx, cart.Owner{SessionID: &sessionID})
		if persistence.IsNotFound(err) {
			merged, _, err = s.cr.FindOrCreate(ctx, cart.Owner{AccountTypeInfoID: &accountTypeInfoID})
			return err
		}
		if err != nil {
			return err
		}

		profile, err := s.cr.GetByOwner(ctx, cart.Owner{AccountTypeInfoID: &accountTypeInfoID})
		if persistence.IsNotFound(err) {
			if err := s.cr.Adopt(ctx, guest.ID, accountTypeInfoID); err != nil {
				return err
			}
			merged, err = s.cr.Get(ctx, guest.ID)
			return err
		}
		if err != nil {
			return err
		}

		items, err := s.cr.ListItems(ctx, guest.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if _, err := s.addQuantity(ctx, profile.ID, item.Target(), item.Quantity); err != nil {
				return err
			}
		}
		if err := s.cr.ClearItems(ctx, guest.ID); err != nil {
			return err
		}
		merged = profile
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to merge guest cart")
	}
	if err := s.hydrate(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *service) AddItem(ctx context.Context, cartID uuid.UUID, payload cart.AddItem) (*cart.Item, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	target, err := record.Cartable.Ref(payload.CartableType, payload.CartableID)
	if err != nil {
		return nil, err
	}

	var item *cart.Item
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.cr.Get(ctx, cartID); err != nil {
			return err
		}
		if err := s.registry.Exists(ctx, record.Cartable, target); err != nil {
			return err
		}
		item, err = s.addQuantity(ctx, cartID, target, payload.Quantity)
		if err != nil {
			return err
		}
		return s.cr.Touch(ctx, cartID)
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to add %s to cart %s", target, cartID)
	}
	return item, nil
}

// addQuantity creates the line for target or increases the existing one.
// An existing line is locked before its quantity is read so concurrent adds
// to it queue up
func (s *service) addQuantity(ctx context.Context, cartID uuid.UUID, target record.Ref, quantity int) (*cart.Item, error) {
	item, created, err := s.cr.FindOrCreateItem(ctx, cartID, target, quantity)
	if err != nil {
		return nil, err
	}
	total := quantity
	if !created {
		if item, err = s.cr.GetItemForUpdate(ctx, cartID, item.ID); err != nil {
			return nil, err
		}
		total = item.Quantity + quantity
	}
	if err := s.checkStock(ctx, target, total); err != nil {
		return nil, err
	}
	if created {
		return item, nil
	}
	return s.cr.SetItemQuantity(ctx, item.ID, total)
}

// checkStock rejects quantities above what is available. Targets without an
// inventory row are not tracked and always pass
func (s *service) checkStock(ctx context.Context, target record.Ref, quantity int) error {
	inv, err := s.is.Get(ctx, target)
	if err != nil {
		if internal.IsCode(err, internal.ErrorCodeNotFound) {
			return nil
		}
		return err
	}
	if available := inv.Available(); quantity > available {
		return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %d available, %d requested", cart.ErrInsufficientStock, available, quantity)
	}
	return nil
}

func (s *service) UpdateItem(ctx context.Context, cartID uuid.UUID, itemID uuid.UUID, payload cart.UpdateItem) (*cart.Item, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	var updated *cart.Item
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := s.cr.GetItem(ctx, cartID, itemID)
		if err != nil {
			return internal.WrapErrorf(err, internal.CodeOf(err), "%v", cart.ErrCartItemDoesNotExist)
		}
		if err := s.checkStock(ctx, item.Target(), payload.Quantity); err != nil {
			return err
		}
		if updated, err = s.cr.SetItemQuantity(ctx, item.ID, payload.Quantity); err != nil {
			return err
		}
		return s.cr.Touch(ctx, cartID)
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to update item %s", itemID)
	}
	return updated, nil
}

func (s *service) RemoveItem(ctx context.Context, cartID uuid.UUID, itemID uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := s.cr.GetItem(ctx, cartID, itemID)
		if persistence.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.cr.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		return s.cr.Touch(ctx, cartID)
	})
	if err != nil {
		return persistence.Translate(err, "Failed to remove item %s", itemID)
	}
	return nil
}

func (s *service) Clear(ctx context.Context, cartID uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.cr.Get(ctx, cartID); err != nil {
			return err
		}
		return s.cr.ClearItems(ctx, cartID)
	})
	if err != nil {
		return persistence.Translate(err, "Failed to clear cart %s", cartID)
	}
	return nil
}
