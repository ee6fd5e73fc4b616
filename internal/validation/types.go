package validation

import "github.com/shopspring/decimal"

// CartItemRequest is the body of POST and DELETE /cart. Quantity defaults
// to one when omitted.
type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity,omitempty" validate:"omitempty,min=1,max=10000"`
}

type WishlistRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

// OrderItemRequest is one checkout line. A price sent by the client is
// accepted for compatibility and ignored.
type OrderItemRequest struct {
	ProductID string           `json:"productId" validate:"required,uuid"`
	Quantity  int              `json:"quantity" validate:"required,min=1,max=10000"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Phone         string             `json:"phone" validate:"required,max=20"`
	Address       string             `json:"address" validate:"required,max=500"`
	Subtotal      *decimal.Decimal   `json:"subtotal,omitempty"`
	Shipping      decimal.Decimal    `json:"shipping"`
	Tax           decimal.Decimal    `json:"tax"`
	Total         *decimal.Decimal   `json:"total,omitempty"`
	PaymentMethod string             `json:"paymentMethod" validate:"max=50"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateStoreRequest struct {
	Name        string `json:"name" validate:"required,max=140"`
	Description string `json:"description"`
	Logo        string `json:"logo" validate:"omitempty,max=255"`
	OwnerID     string `json:"ownerId" validate:"omitempty,max=64"`
}

type AddUserRequest struct {
	Email   string `json:"email" validate:"required,email,max=140"`
	Name    string `json:"name" validate:"required,max=140"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	IsAdmin bool   `json:"isAdmin"`
}

// CategoryForm is the multipart body of POST /categories.
type CategoryForm struct {
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description"`
}

// ProductForm is the multipart body of POST /products.
type ProductForm struct {
	Name          string   `form:"name" validate:"required,max=255"`
	Description   string   `form:"description"`
	Price         string   `form:"price" validate:"required,numeric"`
	OriginalPrice string   `form:"originalPrice" validate:"omitempty,numeric"`
	Discount      int      `form:"discount" validate:"min=0,max=100"`
	Category      string   `form:"category" validate:"required"`
	Brand         string   `form:"brand" validate:"max=100"`
	Rating        float64  `form:"rating" validate:"min=0,max=5"`
	Reviews       int      `form:"reviews" validate:"min=0"`
	InStock       string   `form:"inStock" validate:"omitempty,oneof=true false 1 0"`
	IsTodaysDeals string   `form:"isTodaysDeals" validate:"omitempty,oneof=true false 1 0"`
	StockQuantity int      `form:"stockQuantity" validate:"min=0"`
	Features      []string `form:"features[]"`
	Tags          []string `form:"tags[]"`
	Colors        string   `form:"colors" validate:"max=255"`
	StoreID       string   `form:"storeId" validate:"omitempty,uuid"`
}
