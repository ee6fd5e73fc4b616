package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
)

// Notifier hands a notification off for delivery without waiting for it.
type Notifier interface {
	Dispatch(n domain.Notification)
}

type OrderUC struct {
	UoW      domain.UnitOfWork
	Orders   domain.OrderRepo
	Products domain.ProductRepo
	Cart     domain.CartRepo
	Notifier Notifier
	Policy   domain.TransitionPolicy

	NumberPrefix string
	// MaxAttempts bounds how many order numbers are tried per checkout.
	MaxAttempts int
	// NewNumber defaults to domain.NewOrderNumber.
	NewNumber func(prefix string) (string, error)
}

// PlaceOrder turns a checkout into an order. The order and its items are
// written in one transaction, priced from the catalog as read inside it.
// Clearing the cart and notifying happen after commit and never fail the
// checkout.
func (uc *OrderUC) PlaceOrder(ctx context.Context, actor *domain.Identity, co domain.Checkout) (*domain.Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if len(co.Lines) == 0 {
		return nil, fmt.Errorf("%w: order has no items", domain.ErrValidation)
	}
	for _, l := range co.Lines {
		if l.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: item without product id", domain.ErrValidation)
		}
		if l.Quantity < 1 || l.Quantity > domain.MaxLineQuantity {
			return nil, fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrValidation, domain.MaxLineQuantity)
		}
	}
	if co.Shipping.IsNegative() || co.Tax.IsNegative() {
		return nil, fmt.Errorf("%w: shipping and tax must not be negative", domain.ErrValidation)
	}
	if strings.TrimSpace(co.Phone) == "" || strings.TrimSpace(co.Address) == "" {
		return nil, fmt.Errorf("%w: phone and address are required", domain.ErrValidation)
	}
	lines := domain.MergeLines(co.Lines)
	for _, l := range lines {
		if l.Quantity > domain.MaxLineQuantity {
			return nil, fmt.Errorf("%w: product %s exceeds %d units", domain.ErrValidation, l.ProductID, domain.MaxLineQuantity)
		}
	}

	attempts := uc.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	newNumber := uc.NewNumber
	if newNumber == nil {
		newNumber = domain.NewOrderNumber
	}

	var order *domain.Order
	for attempt := 1; attempt <= attempts; attempt++ {
		number, err := newNumber(uc.NumberPrefix)
		if err != nil {
			return nil, err
		}
		candidate := &domain.Order{
			ID:              uuid.New(),
			OrderNumber:     number,
			UserID:          actor.UserID,
			CustomerName:    actor.DisplayName,
			CustomerEmail:   strings.ToLower(strings.TrimSpace(actor.Email)),
			CustomerPhone:   strings.TrimSpace(co.Phone),
			ShippingAddress: strings.TrimSpace(co.Address),
			Status:          domain.OrderStatusPending,
			Shipping:        co.Shipping,
			Tax:             co.Tax,
			PaymentMethod:   co.PaymentMethod,
		}
		err = uc.UoW.Within(ctx, func(r domain.Repos) error {
			return createOrder(ctx, r, candidate, lines, co.Total)
		})
		if errors.Is(err, domain.ErrDuplicateOrderNumber) {
			log.Warn().Str("order_number", number).Int("attempt", attempt).Msg("order number collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		order = candidate
		break
	}
	if order == nil {
		return nil, fmt.Errorf("%w: no free order number after %d attempts", domain.ErrConflict, attempts)
	}

	if uc.Cart != nil {
		if err := uc.Cart.Clear(ctx, actor.UserID); err != nil {
			log.Warn().Err(err).Str("order", order.OrderNumber).Msg("cart clear after checkout")
		}
	}
	if uc.Notifier != nil {
		uc.Notifier.Dispatch(domain.Notification{
			Recipient: order.CustomerEmail,
			Message:   domain.OrderSummary(order),
		})
	}
	log.Info().Str("order", order.OrderNumber).Str("total", order.Total.StringFixed(2)).Msg("order placed")
	return order, nil
}

// createOrder snapshots catalog name and price into the items and stores
// the order. Any missing product aborts the whole transaction.
func createOrder(ctx context.Context, r domain.Repos, o *domain.Order, lines []domain.CheckoutLine, claimed decimal.NullDecimal) error {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := r.Products.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return fmt.Errorf("%w: product %s", domain.ErrNotFound, l.ProductID)
		}
		it := domain.OrderItem{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    l.Quantity,
		}
		subtotal = subtotal.Add(it.LineTotal())
		items = append(items, it)
	}
	o.Items = items
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.Shipping).Add(o.Tax)
	if claimed.Valid && !claimed.Decimal.Equal(o.Total) {
		return fmt.Errorf("%w: total %s does not match computed %s", domain.ErrValidation,
			claimed.Decimal.StringFixed(2), o.Total.StringFixed(2))
	}
	return r.Orders.Create(ctx, o)
}

// UpdateStatus moves an order along the workflow. Asking for the status the
// order already has is a no-op unless the order is closed.
func (uc *OrderUC) UpdateStatus(ctx context.Context, actor *domain.Identity, id uuid.UUID, status string) (*domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	to, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.Policy.Check(o.Status, to); err != nil {
		return nil, err
	}
	if o.Status == to {
		return o, nil
	}
	if err := uc.Orders.UpdateStatus(ctx, o.ID, o.Status, to); err != nil {
		return nil, err
	}
	log.Info().Str("order", o.OrderNumber).Str("from", string(o.Status)).Str("to", string(to)).
		Str("by", actor.UserID).Msg("order status changed")
	o.Status = to
	return o, nil
}

// GetOrder returns an order to its customer or to an admin.
func (uc *OrderUC) GetOrder(ctx context.Context, actor *domain.Identity, id uuid.UUID) (*domain.Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin() && !strings.EqualFold(o.CustomerEmail, strings.TrimSpace(actor.Email)) {
		return nil, fmt.Errorf("%w: order belongs to another customer", domain.ErrPermissionDenied)
	}
	list := []domain.Order{*o}
	attachImages(ctx, uc.Products, list)
	return &list[0], nil
}

// attachImages fills item images from the live catalog. Items whose product
// is gone keep a nil image.
func attachImages(ctx context.Context, products domain.ProductRepo, orders []domain.Order) {
	if products == nil {
		return
	}
	ids := []uuid.UUID{}
	for _, o := range orders {
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
	}
	if len(ids) == 0 {
		return
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("order item images")
		return
	}
	for i := range orders {
		for j := range orders[i].Items {
			if p, ok := found[orders[i].Items[j].ProductID]; ok && p.ImageURL != "" {
				img := p.ImageURL
				orders[i].Items[j].ImageURL = &img
			}
		}
	}
}
