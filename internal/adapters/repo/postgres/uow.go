package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type UnitOfWork struct{ db *gorm.DB }

func NewUnitOfWork(db *gorm.DB) *UnitOfWork { return &UnitOfWork{db: db} }

func (u *UnitOfWork) Within(ctx context.Context, fn func(r domain.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(domain.Repos{
			Products: NewProductRepo(tx),
			Orders:   NewOrderRepo(tx),
			Cart:     NewCartRepo(tx),
		})
	})
}

// Migrate creates or updates every table the storefront uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Category{},
		&domain.Store{},
		&domain.Product{},
		&domain.CartEntry{},
		&domain.WishlistEntry{},
		&domain.Customer{},
		&domain.Order{},
		&domain.OrderItem{},
	)
}
