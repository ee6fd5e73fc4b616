package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

type WishlistRepo struct{ db *gorm.DB }

func NewWishlistRepo(db *gorm.DB) *WishlistRepo { return &WishlistRepo{db: db} }

// Toggle removes the entry when present and adds it otherwise.
func (r *WishlistRepo) Toggle(ctx context.Context, userID string, productID uuid.UUID) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&domain.WishlistEntry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		e := domain.WishlistEntry{ID: uuid.New(), UserID: userID, ProductID: productID, CreatedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&e).Error; err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, translate(err)
	}
	return added, nil
}

func (r *WishlistRepo) List(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	list := []domain.WishlistEntry{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
