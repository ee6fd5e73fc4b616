package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartEntry is one (user, product) line of a cart. Quantity is always >= 1.
type CartEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_cart_user_product" json:"userId"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product;index" json:"productId"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (CartEntry) TableName() string { return "cart_items" }

type WishlistEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_wishlist_user_product" json:"userId"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product;index" json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (WishlistEntry) TableName() string { return "wishlist_items" }
