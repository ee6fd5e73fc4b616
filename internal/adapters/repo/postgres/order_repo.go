package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order and its items in one statement batch. The only
// unique key on orders besides the primary key is order_number.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	err := r.db.WithContext(ctx).Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateOrderNumber, o.OrderNumber)
	}
	return err
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// UpdateStatus is a compare-and-set on the status column.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: order status changed concurrently", domain.ErrConflict)
}

func (r *OrderRepo) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	list := []domain.Order{}
	err := r.db.WithContext(ctx).Preload("Items").
		Where("customer_email = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at desc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListByStore returns orders with at least one item from the store. The IN
// subquery keeps each order once no matter how many items match.
func (r *OrderRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]domain.Order, error) {
	db := r.db.WithContext(ctx)
	storeProducts := db.Model(&domain.Product{}).Select("id").Where("store_id = ?", storeID)
	matching := db.Model(&domain.OrderItem{}).Select("order_id").Where("product_id IN (?)", storeProducts)
	list := []domain.Order{}
	err := db.Preload("Items").
		Where("id IN (?)", matching).
		Order("created_at desc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OrderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	list := []domain.Order{}
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
