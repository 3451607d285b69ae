package service

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/inventory"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
)

type service struct {
	tx       persistence.Transactor
	log      zerolog.Logger
	registry *record.Registry
	ir       inventory.Repository
}

func NewInventoryService(tx persistence.Transactor, log zerolog.Logger, registry *record.Registry, ir inventory.Repository) inventory.Service {
	return &service{
		tx:       tx,
		log:      log,
		registry: registry,
		ir:       ir,
	}
}

func (s *service) ApplyAction(ctx context.Context, target record.Ref, payload inventory.ApplyAction) (*inventory.Inventory, *inventory.Action, error) {
	if err := validate.Check(payload); err != nil {
		return nil, nil, err
	}
	if payload.PerformedBy == nil {
		payload.PerformedBy = persistence.ActorFrom(ctx).AccountID
	}

	var (
		inv    *inventory.Inventory
		action *inventory.Action
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.registry.Exists(ctx, record.Inventoriable, target); err != nil {
			return err
		}
		locked, err := s.ir.GetOrCreateForUpdate(ctx, target)
		if err != nil {
			return err
		}
		next := locked.QuantityInStock + payload.Quantity
		if next < 0 {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %d in stock, change of %d", inventory.ErrNegativeStock, locked.QuantityInStock, payload.Quantity)
		}
		if next < locked.ReservedStock {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %d reserved, %d would remain", inventory.ErrStockBelowReserved, locked.ReservedStock, next)
		}
		locked.QuantityInStock = next
		if err := s.ir.SaveCounters(ctx, locked); err != nil {
			return err
		}

		newAction := inventory.Action{
			InventoryID: locked.ID,
			ActionType:  payload.ActionType,
			Quantity:    payload.Quantity,
			Reason:      payload.Reason,
			PerformedBy: payload.PerformedBy,
		}
		if err := s.ir.AppendAction(ctx, &newAction); err != nil {
			return err
		}
		inv, action = locked, &newAction
		return nil
	})
	if err != nil {
		return nil, nil, persistence.Translate(err, "Failed to apply %s to %s", payload.ActionType, target)
	}
	if inv.NeedsReorder() {
		s.log.Warn().Str("inventory_id", inv.ID.String()).Int("available", inv.Available()).Int("reorder_level", inv.ReorderLevel).Msg("inventory below reorder level")
	}
	return inv, action, nil
}

func (s *service) Reserve(ctx context.Context, target record.Ref, quantity int) (*inventory.Inventory, error) {
	if quantity <= 0 {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", inventory.ErrZeroQuantity)
	}
	return s.adjustReserved(ctx, target, func(inv *inventory.Inventory) error {
		if inv.Available() < quantity {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %d available, %d requested", inventory.ErrInsufficientStock, inv.Available(), quantity)
		}
		inv.ReservedStock += quantity
		return nil
	})
}

func (s *service) Release(ctx context.Context, target record.Ref, quantity int) (*inventory.Inventory, error) {
	if quantity <= 0 {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", inventory.ErrZeroQuantity)
	}
	return s.adjustReserved(ctx, target, func(inv *inventory.Inventory) error {
		if inv.ReservedStock < quantity {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %d reserved, %d requested", inventory.ErrInvalidRelease, inv.ReservedStock, quantity)
		}
		inv.ReservedStock -= quantity
		return nil
	})
}

func (s *service) Fulfil(ctx context.Context, target record.Ref, quantity int, reason string) (*inventory.Inventory, error) {
	var inv *inventory.Inventory
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Release(ctx, target, quantity); err != nil {
			return err
		}
		updated, _, err := s.ApplyAction(ctx, target, inventory.ApplyAction{
			ActionType: inventory.StockOut,
			Quantity:   -quantity,
			Reason:     &reason,
		})
		if err != nil {
			return err
		}
		inv = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// adjustReserved changes reserved stock under the row lock. The ledger only
// tracks stock in hand, so no action is appended
func (s *service) adjustReserved(ctx context.Context, target record.Ref, fn func(inv *inventory.Inventory) error) (*inventory.Inventory, error) {
	var inv *inventory.Inventory
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.registry.Exists(ctx, record.Inventoriable, target); err != nil {
			return err
		}
		locked, err := s.ir.GetOrCreateForUpdate(ctx, target)
		if err != nil {
			return err
		}
		if err := fn(locked); err != nil {
			return err
		}
		if err := s.ir.SaveCounters(ctx, locked); err != nil {
			return err
		}
		inv = locked
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to update reserved stock of %s", target)
	}
	return inv, nil
}

func (s *service) Get(ctx context.Context, target record.Ref) (*inventory.Inventory, error) {
	found, err := s.ir.GetByTarget(ctx, target)
	if err != nil {
		return nil, persistence.Translate(err, "%v: %s", inventory.ErrInventoryDoesNotExist, target)
	}
	return found, nil
}

func (s *service) SetReorderLevel(ctx context.Context, target record.Ref, level int) (*inventory.Inventory, error) {
	if level < 0 {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "Reorder level must not be negative")
	}
	var inv *inventory.Inventory
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.registry.Exists(ctx, record.Inventoriable, target); err != nil {
			return err
		}
		locked, err := s.ir.GetOrCreateForUpdate(ctx, target)
		if err != nil {
			return err
		}
		inv, err = s.ir.SetReorderLevel(ctx, locked.ID, level)
		return err
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to set reorder level of %s", target)
	}
	return inv, nil
}

func (s *service) Actions(ctx context.Context, inventoryID uuid.UUID, actionType *inventory.ActionType, page internal.Page) ([]inventory.Action, error) {
	actions, err := s.ir.ListActions(ctx, inventoryID, actionType, page)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list actions of inventory %s", inventoryID)
	}
	return actions, nil
}
