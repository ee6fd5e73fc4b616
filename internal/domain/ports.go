package domain

import (
	"context"
	"io"

	"github.com/google/uuid"
)

type CategoryRepo interface {
	Create(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	// List fills ProductCount from the products table.
	List(ctx context.Context) ([]Category, error)
}

type ProductRepo interface {
	Create(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error)
	// NameTaken reports whether another product already uses name.
	NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	// Delete removes the product together with the cart and wishlist
	// entries pointing at it.
	Delete(ctx context.Context, id uuid.UUID) error
	SetTodaysDeal(ctx context.Context, id uuid.UUID, on bool) error
}

type StoreRepo interface {
	Create(ctx context.Context, s *Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)
	FindByOwner(ctx context.Context, ownerID string) (*Store, error)
	List(ctx context.Context) ([]Store, error)
}

type CartRepo interface {
	// AddOrIncrement creates the entry or adds qty to it in one statement.
	AddOrIncrement(ctx context.Context, userID string, productID uuid.UUID, qty int) (*CartEntry, error)
	Remove(ctx context.Context, userID string, productID uuid.UUID) error
	List(ctx context.Context, userID string) ([]CartEntry, error)
	Clear(ctx context.Context, userID string) error
}

type WishlistRepo interface {
	Toggle(ctx context.Context, userID string, productID uuid.UUID) (added bool, err error)
	List(ctx context.Context, userID string) ([]WishlistEntry, error)
}

type OrderRepo interface {
	// Create inserts the order and its items. A taken order number
	// surfaces as ErrDuplicateOrderNumber.
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// UpdateStatus only applies when the stored status is still from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus) error
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}

type CustomerRepo interface {
	// Register returns the stored customer for c.ExternalID, creating it first if needed.
	Register(ctx context.Context, c *Customer) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	FindByExternalID(ctx context.Context, externalID string) (*Customer, error)
	ListWithStats(ctx context.Context) ([]CustomerStats, error)
}

// Repos is the set of repositories bound to one transaction.
type Repos struct {
	Products ProductRepo
	Orders   OrderRepo
	Cart     CartRepo
}

// UnitOfWork runs fn in a single transaction. Returning an error rolls back.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(r Repos) error) error
}

// FileStorage stores uploaded files and hands back a URL for them.
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// NotificationSink delivers a message. Callers treat failures as non-fatal.
type NotificationSink interface {
	Send(ctx context.Context, n Notification) error
}
