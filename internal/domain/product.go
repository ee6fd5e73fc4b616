package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;uniqueIndex" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	ImageURL     string    `gorm:"size:255" json:"image"`
	ProductCount int       `gorm:"->;-:migration" json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Product struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string              `gorm:"size:255;index" json:"name"`
	Description   string              `gorm:"type:text" json:"description"`
	Price         decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	OriginalPrice decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"originalPrice"`
	Discount      int                 `gorm:"default:0" json:"discount"`
	ImageURL      string              `gorm:"size:255" json:"image"`
	Images        []string            `gorm:"type:jsonb;serializer:json" json:"images"`
	CategoryID    uuid.UUID           `gorm:"type:uuid;index" json:"categoryId"`
	Category      *Category           `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Brand         string              `gorm:"size:100" json:"brand"`
	Rating        float64             `gorm:"default:0" json:"rating"`
	Reviews       int                 `gorm:"default:0" json:"reviews"`
	InStock       bool                `gorm:"default:true" json:"inStock"`
	StockQuantity int                 `gorm:"default:0" json:"stockQuantity"`
	Features      []string            `gorm:"type:jsonb;serializer:json" json:"features"`
	Tags          []string            `gorm:"type:jsonb;serializer:json" json:"tags"`
	IsTodaysDeals bool                `gorm:"default:false;index" json:"isTodaysDeals"`
	Colors        string              `gorm:"size:255" json:"colors"`
	StoreID       *uuid.UUID          `gorm:"type:uuid;index" json:"storeId,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Store groups the products of a single owner.
type Store struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:140" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	LogoURL     string    `gorm:"size:255" json:"logo"`
	OwnerID     string    `gorm:"size:64;uniqueIndex" json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Promotions are the storefront badges. They are derived from the product
// tags every time they are read, so editing tags is enough to change them.
type Promotions struct {
	BestSeller bool `json:"isBestSeller"`
	Featured   bool `json:"isFeatured"`
	NewArrival bool `json:"isNewArrival"`
	TopRated   bool `json:"isTopRated"`
	Trending   bool `json:"isTrending"`
	FlashSale  bool `json:"isFlashSale"`
}

var promotionTags = map[string]func(*Promotions){
	"best-seller": func(p *Promotions) { p.BestSeller = true },
	"featured":    func(p *Promotions) { p.Featured = true },
	"new-arrival": func(p *Promotions) { p.NewArrival = true },
	"top-rated":   func(p *Promotions) { p.TopRated = true },
	"trending":    func(p *Promotions) { p.Trending = true },
	"flash-sale":  func(p *Promotions) { p.FlashSale = true },
}

// NormalizeTag lowercases a tag and folds spaces and underscores to dashes,
// so "Best Seller", "best_seller" and "best-seller" are the same tag.
func NormalizeTag(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	t = strings.NewReplacer(" ", "-", "_", "-").Replace(t)
	return t
}

func (p Product) Promotions() Promotions {
	var out Promotions
	for _, t := range p.Tags {
		if set, ok := promotionTags[NormalizeTag(t)]; ok {
			set(&out)
		}
	}
	return out
}

type ProductFilter struct {
	CategoryID *uuid.UUID
	StoreID    *uuid.UUID
	Query      string
	Tag        string
	DealsOnly  bool
	Sort       string
	Page       int
	PageSize   int
}
