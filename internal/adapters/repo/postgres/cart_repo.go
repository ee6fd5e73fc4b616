package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

type CartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) *CartRepo { return &CartRepo{db: db} }

// AddOrIncrement is a single INSERT .. ON CONFLICT DO UPDATE, so concurrent
// adds for the same (user, product) never lose an increment. An increment
// that would pass domain.MaxLineQuantity updates nothing and is rejected.
func (r *CartRepo) AddOrIncrement(ctx context.Context, userID string, productID uuid.UUID, qty int) (*domain.CartEntry, error) {
	now := time.Now()
	e := domain.CartEntry{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if qty < 1 || qty > domain.MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrValidation, domain.MaxLineQuantity)
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("cart_items.quantity + excluded.quantity <= ?", domain.MaxLineQuantity),
		}},
	}).Create(&e)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: cart quantity would exceed %d", domain.ErrValidation, domain.MaxLineQuantity)
	}
	var out domain.CartEntry
	if err := r.db.WithContext(ctx).First(&out, "user_id = ? AND product_id = ?", userID, productID).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *CartRepo) Remove(ctx context.Context, userID string, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&domain.CartEntry{}).Error
}

func (r *CartRepo) List(ctx context.Context, userID string) ([]domain.CartEntry, error) {
	list := []domain.CartEntry{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.CartEntry{}).Error
}
