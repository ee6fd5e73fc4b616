package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/phenrril/storefront/internal/domain"
)

type AdminUC struct {
	Orders    domain.OrderRepo
	Products  domain.ProductRepo
	Stores    domain.StoreRepo
	Customers domain.CustomerRepo
}

// ListOrders depends on who asks. Customers get their own orders with
// items, a store admin gets orders touching the store's products, and a
// global admin gets every order without items.
func (uc *AdminUC) ListOrders(ctx context.Context, actor *domain.Identity) ([]domain.Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !actor.Admin() {
		email := strings.TrimSpace(actor.Email)
		if email == "" {
			return []domain.Order{}, nil
		}
		list, err := uc.Orders.ListByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		attachImages(ctx, uc.Products, list)
		return list, nil
	}
	scope, err := storeScope(ctx, uc.Stores, actor)
	if err != nil {
		return nil, err
	}
	if scope != nil {
		list, err := uc.Orders.ListByStore(ctx, *scope)
		if err != nil {
			return nil, err
		}
		attachImages(ctx, uc.Products, list)
		return list, nil
	}
	return uc.Orders.ListAll(ctx)
}

// ListUsers returns customers with their order count and spend. Location
// and phone are taken from the latest order.
func (uc *AdminUC) ListUsers(ctx context.Context, actor *domain.Identity) ([]domain.CustomerStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return uc.Customers.ListWithStats(ctx)
}

func (uc *AdminUC) AddUser(ctx context.Context, actor *domain.Identity, c *domain.Customer) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	c.ExternalID = nil
	return uc.Customers.Create(ctx, c)
}
