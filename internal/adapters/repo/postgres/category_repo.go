package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type CategoryRepo struct{ db *gorm.DB }

func NewCategoryRepo(db *gorm.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *CategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CategoryRepo) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).First(&c, "name = ?", name).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	list := []domain.Category{}
	err := r.db.WithContext(ctx).Model(&domain.Category{}).
		Select("categories.*, (SELECT COUNT(*) FROM products WHERE products.category_id = categories.id) AS product_count").
		Order("name asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
