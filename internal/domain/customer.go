package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is the local directory record of a user known to the identity
// provider. ExternalID is the provider's stable subject.
type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID *string   `gorm:"size:64;uniqueIndex" json:"externalId,omitempty"`
	Email      string    `gorm:"size:140;uniqueIndex" json:"email"`
	Name       string    `gorm:"size:140" json:"name"`
	Phone      string    `gorm:"size:20" json:"phone"`
	IsAdmin    bool      `gorm:"default:false" json:"isAdmin"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CustomerStats is a customer row with aggregates over the orders placed
// with the same email. Phone and Location come from the latest order and
// are only a display hint.
type CustomerStats struct {
	Customer
	OrderCount int64           `json:"orderCount"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	Location   string          `gorm:"-" json:"location"`
	LastPhone  string          `gorm:"-" json:"lastPhone"`
}
