package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Omit("Category").Create(p).Error)
}

func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	return translate(r.db.WithContext(ctx).Omit("Category").Save(p).Error)
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindByIDs skips ids that no longer exist.
func (r *ProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	out := make(map[uuid.UUID]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []domain.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepo) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&domain.Product{}).Where("name = ?", name)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	var list []domain.Product
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.StoreID != nil {
		q = q.Where("store_id = ?", *f.StoreID)
	}
	if f.DealsOnly {
		q = q.Where("is_todays_deals = ?", true)
	}
	if tag := domain.NormalizeTag(f.Tag); tag != "" {
		q = q.Where(`LOWER(CAST(tags AS TEXT)) LIKE ? ESCAPE '\'`, `%"`+escapeLike(tag)+`"%`)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + escapeLike(strings.ToLower(query)) + "%"
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	switch f.Sort {
	case "price_desc":
		q = q.Order("price desc")
	case "price_asc":
		q = q.Order("price asc")
	case "newest":
		q = q.Order("created_at desc")
	case "rating":
		q = q.Order("rating desc")
	default:
		q = q.Order("name asc")
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	offset := (f.Page - 1) * f.PageSize
	if err := q.Offset(offset).Limit(f.PageSize).Preload("Category").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&domain.CartEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&domain.WishlistEntry{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *ProductRepo) SetTodaysDeal(ctx context.Context, id uuid.UUID, on bool) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Update("is_todays_deals", on)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
