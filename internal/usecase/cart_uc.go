package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
)

type CartUC struct {
	Cart     domain.CartRepo
	Wishlist domain.WishlistRepo
	Products domain.ProductRepo
}

// CartLine is a cart entry with the product as it is now.
type CartLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type CartView struct {
	Entries  []CartLine      `json:"entries"`
	Count    int             `json:"count"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Add puts qty more of the product in the caller's cart.
func (uc *CartUC) Add(ctx context.Context, actor *domain.Identity, productID uuid.UUID, qty int) (*domain.CartEntry, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if qty <= 0 || qty > domain.MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrValidation, domain.MaxLineQuantity)
	}
	if _, err := uc.Products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return uc.Cart.AddOrIncrement(ctx, actor.UserID, productID, qty)
}

func (uc *CartUC) Remove(ctx context.Context, actor *domain.Identity, productID uuid.UUID) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	return uc.Cart.Remove(ctx, actor.UserID, productID)
}

// List prices the cart at current catalog prices.
func (uc *CartUC) List(ctx context.Context, actor *domain.Identity) (*CartView, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	entries, err := uc.Cart.List(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	products, err := uc.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	view := &CartView{Entries: []CartLine{}, Subtotal: decimal.Zero}
	for _, e := range entries {
		p, ok := products[e.ProductID]
		if !ok {
			continue
		}
		line := CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.ImageURL,
			Quantity:  e.Quantity,
			LineTotal: p.Price.Mul(decimal.NewFromInt(int64(e.Quantity))),
		}
		view.Entries = append(view.Entries, line)
		view.Quantity += e.Quantity
		view.Subtotal = view.Subtotal.Add(line.LineTotal)
	}
	view.Count = len(view.Entries)
	return view, nil
}

func (uc *CartUC) Clear(ctx context.Context, actor *domain.Identity) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	return uc.Cart.Clear(ctx, actor.UserID)
}

// ToggleWishlist reports whether the product is on the wishlist afterwards.
func (uc *CartUC) ToggleWishlist(ctx context.Context, actor *domain.Identity, productID uuid.UUID) (bool, error) {
	if err := requireUser(actor); err != nil {
		return false, err
	}
	if _, err := uc.Products.FindByID(ctx, productID); err != nil {
		return false, err
	}
	return uc.Wishlist.Toggle(ctx, actor.UserID, productID)
}

func (uc *CartUC) ListWishlist(ctx context.Context, actor *domain.Identity) ([]domain.Product, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	entries, err := uc.Wishlist.List(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	products, err := uc.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(entries))
	for _, e := range entries {
		if p, ok := products[e.ProductID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
