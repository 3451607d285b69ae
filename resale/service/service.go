package service

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/resale"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
)

var sellers = record.NewFamily("seller", record.KindAccountTypeInfo)

type service struct {
	tx       persistence.Transactor
	log      zerolog.Logger
	registry *record.Registry
	cat      catalog.Service
	rr       resale.Repository
	now      func() time.Time
}

func NewResaleService(tx persistence.Transactor, log zerolog.Logger, registry *record.Registry, cat catalog.Service, rr resale.Repository) resale.Service {
	return &service{
		tx:       tx,
		log:      log,
		registry: registry,
		cat:      cat,
		rr:       rr,
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, payload resale.CreateRequest) (*resale.Request, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	mode := payload.Mode
	if mode == "" {
		mode = resale.Implicit
	}

	var created *resale.Request
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.registry.Exists(ctx, sellers, record.Ref{Type: record.KindAccountTypeInfo, ID: payload.SellerAccountTypeInfoID}); err != nil {
			return err
		}
		product, err := s.cat.GetProduct(ctx, payload.ProductID)
		if err != nil {
			return err
		}
		if product.Status != catalog.ProductActive {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", catalog.ErrProductNotForSale)
		}

		newRequest := resale.Request{
			SellerAccountTypeInfoID: payload.SellerAccountTypeInfoID,
			SupplierAccountID:       product.SupplierAccountID,
			ProductID:               product.ID,
			Mode:                    mode,
			RequestedQuantity:       payload.RequestedQuantity,
			MarkupPercentage:        payload.MarkupPercentage.Round(2),
			Status:                  resale.Pending,
			Note:                    payload.Note,
		}
		if err := s.rr.Create(ctx, &newRequest); err != nil {
			if internal.IsCode(err, internal.ErrorCodeConflict) {
				return internal.WrapErrorf(err, internal.ErrorCodeConflict, "%v", resale.ErrAlreadyRequested)
			}
			return err
		}
		if mode == resale.Implicit {
			if err := s.approve(ctx, &newRequest, nil); err != nil {
				return err
			}
		}
		created, err = s.rr.Get(ctx, newRequest.ID)
		return err
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to request resale of %s", payload.ProductID)
	}
	s.log.Info().Str("request_id", created.ID.String()).Str("mode", string(created.Mode)).Str("status", string(created.Status)).Msg("resale requested")
	return created, nil
}

// approve lists the product for the seller and moves r out of pending
func (s *service) approve(ctx context.Context, r *resale.Request, note *string) error {
	item, err := s.cat.CreateProductItem(ctx, catalog.CreateProductItem{
		ProductID:               r.ProductID,
		SellerAccountTypeInfoID: r.SellerAccountTypeInfoID,
		MarkupPercentage:        r.MarkupPercentage,
	})
	if err != nil {
		return err
	}
	return s.transition(ctx, r.ID, resale.Approved, note, &item.ID)
}

func (s *service) transition(ctx context.Context, id uuid.UUID, to resale.Status, note *string, productItemID *uuid.UUID) error {
	changes := map[string]interface{}{
		"status":     to,
		"decided_at": s.now(),
	}
	if note != nil {
		changes["note"] = *note
	}
	if productItemID != nil {
		changes["product_item_id"] = *productItemID
	}
	moved, err := s.rr.Transition(ctx, id, resale.Pending, changes)
	if err != nil {
		return err
	}
	if !moved {
		return internal.NewErrorf(internal.ErrorCodeConflict, "%v", resale.ErrNotPending)
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*resale.Request, error) {
	found, err := s.rr.Get(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", resale.ErrRequestDoesNotExist)
	}
	return found, nil
}

func (s *service) List(ctx context.Context, filter resale.Filter, page internal.Page) ([]resale.Request, error) {
	found, err := s.rr.List(ctx, filter, page)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list resale requests")
	}
	return found, nil
}

func (s *service) Decide(ctx context.Context, id uuid.UUID, payload resale.Decide) (*resale.Request, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}

	var decided *resale.Request
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if found.SupplierAccountID != payload.SupplierAccountID {
			return internal.NewErrorf(internal.ErrorCodeForbidden, "%v", resale.ErrNotSupplier)
		}
		if found.Status != resale.Pending {
			return internal.NewErrorf(internal.ErrorCodeConflict, "%v", resale.ErrNotPending)
		}
		if payload.Status == resale.Approved {
			err = s.approve(ctx, found, payload.Note)
		} else {
			err = s.transition(ctx, found.ID, resale.Rejected, payload.Note, nil)
		}
		if err != nil {
			return err
		}
		decided, err = s.rr.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to decide resale request %s", id)
	}
	return decided, nil
}

func (s *service) Withdraw(ctx context.Context, id uuid.UUID, sellerAccountTypeInfoID uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if found.SellerAccountTypeInfoID != sellerAccountTypeInfoID {
			return internal.NewErrorf(internal.ErrorCodeForbidden, "%v", resale.ErrNotSeller)
		}
		deleted, err := s.rr.DeletePending(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return internal.NewErrorf(internal.ErrorCodeConflict, "%v", resale.ErrNotPending)
		}
		return nil
	})
	if err != nil {
		return persistence.Translate(err, "Failed to withdraw resale request %s", id)
	}
	return nil
}
