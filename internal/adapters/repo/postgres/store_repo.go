package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type StoreRepo struct{ db *gorm.DB }

func NewStoreRepo(db *gorm.DB) *StoreRepo { return &StoreRepo{db: db} }

func (r *StoreRepo) Create(ctx context.Context, s *domain.Store) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *StoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	var s domain.Store
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *StoreRepo) FindByOwner(ctx context.Context, ownerID string) (*domain.Store, error) {
	var s domain.Store
	if err := r.db.WithContext(ctx).First(&s, "owner_id = ?", ownerID).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *StoreRepo) List(ctx context.Context) ([]domain.Store, error) {
	list := []domain.Store{}
	if err := r.db.WithContext(ctx).Order("name asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
