package service

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/cart"
	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/email"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/inventory"
	"github.com/RagOfJoes/bloom/jobs/tasks"
	"github.com/RagOfJoes/bloom/order"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type service struct {
	tx     persistence.Transactor
	log    zerolog.Logger
	as     account.Service
	cs     cart.Service
	cat    catalog.Service
	is     inventory.Service
	emails *tasks.Emails
	or     order.Repository
	now    func() time.Time
}

func NewOrderService(tx persistence.Transactor, log zerolog.Logger, as account.Service, cs cart.Service, cat catalog.Service, is inventory.Service, emails *tasks.Emails, or order.Repository) order.Service {
	return &service{
		tx:     tx,
		log:    log,
		as:     as,
		cs:     cs,
		cat:    cat,
		is:     is,
		emails: emails,
		or:     or,
		now:    time.Now,
	}
}

// priced is a cart line with its price resolved
type priced struct {
	name     string
	price    decimal.Decimal
	currency uuid.UUID
}

func (s *service) PlaceFromCart(ctx context.Context, payload order.PlaceOrder) (*order.Order, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}

	var placed *order.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.cs.Get(ctx, payload.CartID.String())
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", order.ErrEmptyCart)
		}
		recipient, name, err := s.recipient(ctx, c, payload.Email)
		if err != nil {
			return err
		}

		newOrder := order.Order{
			AccountTypeInfoID: c.AccountTypeInfoID,
			SessionID:         c.SessionID,
			Email:             &recipient,
			Status:            order.Pending,
			CurrencyID:        payload.CurrencyID,
			Notes:             payload.Notes,
		}
		if err := newOrder.EnsureID(); err != nil {
			return err
		}
		newOrder.OrderTag = tag("ORD", newOrder.ID)

		items := make([]order.Item, 0, len(c.Items))
		total := decimal.Zero
		for _, line := range c.Items {
			target := line.Target()
			p, err := s.price(ctx, target)
			if err != nil {
				return err
			}
			if p.currency != payload.CurrencyID {
				return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %s", order.ErrCurrencyMismatch, target)
			}
			reserved, err := s.reserve(ctx, target, line.Quantity)
			if err != nil {
				return err
			}
			subtotal := p.price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			items = append(items, order.Item{
				OrderID:          newOrder.ID,
				OrderableType:    target.Type,
				OrderableID:      target.ID,
				Name:             p.name,
				Quantity:         line.Quantity,
				ReservedQuantity: reserved,
				UnitPrice:        p.price,
				Subtotal:         subtotal,
				Tax:              decimal.Zero,
				Discount:         decimal.Zero,
				Total:            subtotal,
			})
			total = total.Add(subtotal)
		}
		newOrder.Total = total

		if err := s.or.Create(ctx, &newOrder); err != nil {
			return err
		}
		if err := s.or.CreateItems(ctx, items); err != nil {
			return err
		}
		invoice := order.Invoice{
			OrderID:    newOrder.ID,
			InvoiceTag: tag("INV", newOrder.ID),
			Subtotal:   total,
			Tax:        decimal.Zero,
			Discount:   decimal.Zero,
			Total:      total,
			AmountPaid: decimal.Zero,
			Status:     order.Unpaid,
		}
		if err := s.or.CreateInvoice(ctx, &invoice); err != nil {
			return err
		}
		if err := s.cs.Clear(ctx, c.ID); err != nil {
			return err
		}

		newOrder.Items = items
		newOrder.Invoice = &invoice
		s.emails.Send(ctx, email.Request{
			Template:  email.TemplateOrderConfirmation,
			To:        []string{recipient},
			Subject:   "Order " + newOrder.OrderTag + " confirmed",
			MessageID: newOrder.ID.String(),
			Context: map[string]interface{}{
				"Name":     name,
				"OrderTag": newOrder.OrderTag,
				"Total":    total.StringFixed(2),
				"Items":    len(items),
			},
		})
		placed = &newOrder
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to place order for cart %s", payload.CartID)
	}
	s.log.Info().Str("order_id", placed.ID.String()).Str("order_tag", placed.OrderTag).Str("total", placed.Total.StringFixed(2)).Msg("order placed")
	return placed, nil
}

// recipient returns the address and name the confirmation goes to
func (s *service) recipient(ctx context.Context, c *cart.Cart, fallback *string) (string, string, error) {
	if c.AccountTypeInfoID == nil {
		if fallback == nil || *fallback == "" {
			return "", "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", order.ErrMissingRecipient)
		}
		return *fallback, "", nil
	}
	info, err := s.as.GetInfo(ctx, *c.AccountTypeInfoID)
	if err != nil {
		return "", "", err
	}
	acc, err := s.as.Find(ctx, info.AccountID.String())
	if err != nil {
		return "", "", err
	}
	return acc.Email, acc.FullName(), nil
}

// price resolves the current price of an orderable
func (s *service) price(ctx context.Context, target record.Ref) (*priced, error) {
	if !record.Orderable.Has(target.Type) {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %s", order.ErrNotOrderable, target)
	}
	switch target.Type {
	case record.KindProductItem:
		item, err := s.cat.GetProductItem(ctx, target.ID)
		if err != nil {
			return nil, err
		}
		product, err := s.cat.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !item.IsActive || product.Status != catalog.ProductActive {
			return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %s", order.ErrNotOrderable, target)
		}
		name := product.Name
		if item.Name != nil && *item.Name != "" {
			name = *item.Name
		}
		return &priced{name: name, price: item.Price, currency: product.CurrencyID}, nil
	default:
		product, err := s.cat.GetProduct(ctx, target.ID)
		if err != nil {
			return nil, err
		}
		if product.Status != catalog.ProductActive {
			return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %s", order.ErrNotOrderable, target)
		}
		return &priced{name: product.Name, price: product.Price, currency: product.CurrencyID}, nil
	}
}

// tracked reports whether target has an inventory. Untracked orderables,
// e.g. digital goods, are never reserved
func (s *service) tracked(ctx context.Context, target record.Ref) (bool, error) {
	if _, err := s.is.Get(ctx, target); err != nil {
		if internal.IsCode(err, internal.ErrorCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// reserve holds quantity of target and returns how much was held
func (s *service) reserve(ctx context.Context, target record.Ref, quantity int) (int, error) {
	ok, err := s.tracked(ctx, target)
	if err != nil || !ok {
		return 0, err
	}
	if _, err := s.is.Reserve(ctx, target, quantity); err != nil {
		return 0, err
	}
	return quantity, nil
}

func (s *service) Get(ctx context.Context, id string) (*order.Order, error) {
	var (
		found *order.Order
		err   error
	)
	if internal.IsFriendlyID(id) {
		found, err = s.or.GetByFriendlyID(ctx, id)
	} else if parsed, perr := uuid.FromString(id); perr == nil {
		found, err = s.or.Get(ctx, parsed)
	} else {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "id must be a UUID or a friendly id")
	}
	if err != nil {
		return nil, persistence.Translate(err, "%v: %s", order.ErrOrderDoesNotExist, id)
	}
	return found, nil
}

func (s *service) ListFor(ctx context.Context, accountTypeInfoID uuid.UUID, page internal.Page) ([]order.Order, error) {
	orders, err := s.or.ListFor(ctx, accountTypeInfoID, page)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list orders of %s", accountTypeInfoID)
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, payload order.UpdateStatus) (*order.Order, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}

	var updated *order.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.or.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == payload.Status {
			updated, err = s.or.Get(ctx, id)
			return err
		}
		if !current.Status.CanMoveTo(payload.Status) {
			return internal.NewErrorf(internal.ErrorCodeConflict, "%v: %s to %s", order.ErrInvalidTransition, current.Status, payload.Status)
		}

		switch payload.Status {
		case order.Cancelled:
			if err := s.settle(ctx, current, func(target record.Ref, quantity int) error {
				_, err := s.is.Release(ctx, target, quantity)
				return err
			}); err != nil {
				return err
			}
			if err := s.voidUnpaid(ctx, id); err != nil {
				return err
			}
		case order.Shipped:
			reason := "order " + current.OrderTag
			if err := s.settle(ctx, current, func(target record.Ref, quantity int) error {
				_, err := s.is.Fulfil(ctx, target, quantity, reason)
				return err
			}); err != nil {
				return err
			}
		}

		updated, err = s.or.SetStatus(ctx, id, payload.Status)
		return err
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to update status of order %s", id)
	}
	return updated, nil
}

// settle applies fn to the stock each line of o reserved when it was
// placed. Lines that reserved nothing are skipped even if their orderable
// gained an inventory since
func (s *service) settle(ctx context.Context, o *order.Order, fn func(target record.Ref, quantity int) error) error {
	if !o.Status.HoldsReservation() {
		return nil
	}
	for _, item := range o.Items {
		if item.ReservedQuantity == 0 {
			continue
		}
		if err := fn(item.Target(), item.ReservedQuantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) voidUnpaid(ctx context.Context, orderID uuid.UUID) error {
	invoice, err := s.or.GetInvoiceForUpdate(ctx, orderID)
	if persistence.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !invoice.AmountPaid.IsZero() {
		return nil
	}
	invoice.Status = order.Void
	return s.or.UpdateInvoice(ctx, invoice)
}

func (s *service) RecordPayment(ctx context.Context, id uuid.UUID, payload order.RecordPayment) (*order.Invoice, error) {
	amount := payload.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", order.ErrNonPositivePayment)
	}

	var invoice *order.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.or.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		found, err := s.or.GetInvoiceForUpdate(ctx, id)
		if err != nil {
			return internal.WrapErrorf(err, internal.CodeOf(err), "%v", order.ErrInvoiceDoesNotExist)
		}
		if found.Status == order.Void {
			return internal.NewErrorf(internal.ErrorCodeConflict, "%v", order.ErrInvoiceVoid)
		}
		if amount.GreaterThan(found.Outstanding()) {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %s outstanding", order.ErrOverpayment, found.Outstanding().StringFixed(2))
		}

		found.AmountPaid = found.AmountPaid.Add(amount)
		found.Status = order.PartiallyPaid
		if found.AmountPaid.Equal(found.Total) {
			found.Status = order.Paid
		}
		if err := s.or.UpdateInvoice(ctx, found); err != nil {
			return err
		}
		if found.Status == order.Paid && current.Status == order.Pending {
			if _, err := s.or.SetStatus(ctx, id, order.Confirmed); err != nil {
				return err
			}
		}
		invoice = found
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to record payment for order %s", id)
	}
	return invoice, nil
}

// tag builds a human readable reference such as ORD-k3Jx9mPq2a7B
func tag(prefix string, id uuid.UUID) string {
	return prefix + "-" + internal.FriendlyID(prefix, id)
}
