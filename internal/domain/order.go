package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// position in the forward workflow; cancelled sits outside it.
var statusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := statusRank[st]; ok || st == OrderStatusCancelled {
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, s)
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// TransitionPolicy is the allowed-transition table for order statuses.
type TransitionPolicy struct {
	// CancelFromAnyState also allows shipped -> cancelled.
	CancelFromAnyState bool
}

// Check returns nil when from -> to is allowed. from == to on a
// non-terminal status is allowed and means "nothing to do".
func (p TransitionPolicy) Check(from, to OrderStatus) error {
	if from.Terminal() {
		return fmt.Errorf("%w: order is %s", ErrIllegalTransition, from)
	}
	if from == to {
		return nil
	}
	if to == OrderStatusCancelled {
		if from == OrderStatusPending || from == OrderStatusProcessing || p.CancelFromAnyState {
			return nil
		}
		return fmt.Errorf("%w: cannot cancel a %s order", ErrIllegalTransition, from)
	}
	if statusRank[to] > statusRank[from] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber     string          `gorm:"size:20;uniqueIndex;not null" json:"orderNumber"`
	UserID          string          `gorm:"size:64;index" json:"userId"`
	CustomerName    string          `gorm:"size:100" json:"customerName"`
	CustomerEmail   string          `gorm:"size:140;index" json:"customerEmail"`
	CustomerPhone   string          `gorm:"size:20" json:"customerPhone"`
	ShippingAddress string          `gorm:"type:text" json:"shippingAddress"`
	Status          OrderStatus     `gorm:"type:varchar(20);index;not null" json:"status"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Shipping        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping"`
	Tax             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMethod   string          `gorm:"size:50" json:"paymentMethod"`
	TrackingNumber  string          `gorm:"size:50" json:"trackingNumber,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is the purchase-time snapshot of a line. ProductID is a loose
// reference: the product may since have been edited or deleted.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"-"`
	ProductID   uuid.UUID       `gorm:"type:uuid;index" json:"productId"`
	ProductName string          `gorm:"size:255" json:"productName"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	ImageURL    *string         `gorm:"-" json:"image"`
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// MaxLineQuantity caps the quantity of one product in a cart entry or an
// order line.
const MaxLineQuantity = 10000

// CheckoutLine is a requested line. Any price the client sends is ignored.
type CheckoutLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type Checkout struct {
	Lines         []CheckoutLine
	Phone         string
	Address       string
	Shipping      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.NullDecimal
	PaymentMethod string
}

// MergeLines folds repeated products into a single line, keeping first-seen order.
func MergeLines(lines []CheckoutLine) []CheckoutLine {
	idx := make(map[uuid.UUID]int, len(lines))
	out := make([]CheckoutLine, 0, len(lines))
	for _, l := range lines {
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// OrderNumberLength is the count of random characters after the prefix.
const OrderNumberLength = 6

// NewOrderNumber returns prefix followed by six random uppercase alphanumerics.
func NewOrderNumber(prefix string) (string, error) {
	var b strings.Builder
	b.Grow(len(prefix) + OrderNumberLength)
	b.WriteString(prefix)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := 0; i < OrderNumberLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("order number: %w", err)
		}
		b.WriteByte(orderNumberAlphabet[n.Int64()])
	}
	return b.String(), nil
}

type Notification struct {
	Recipient string
	Message   string
}

// OrderSummary renders the text sent to the shop when an order is placed.
func OrderSummary(o *Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s <%s>\nPhone: %s\n", o.CustomerName, o.CustomerEmail, o.CustomerPhone)
	fmt.Fprintf(&b, "Ship to: %s\n", o.ShippingAddress)
	b.WriteString("Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d @ %s\n", it.ProductName, it.Quantity, it.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s (shipping %s, tax %s)\n", o.Total.StringFixed(2), o.Shipping.StringFixed(2), o.Tax.StringFixed(2))
	if o.PaymentMethod != "" {
		fmt.Fprintf(&b, "Payment: %s\n", o.PaymentMethod)
	}
	return b.String()
}
