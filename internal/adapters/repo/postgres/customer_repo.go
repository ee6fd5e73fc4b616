package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type CustomerRepo struct{ db *gorm.DB }

func NewCustomerRepo(db *gorm.DB) *CustomerRepo { return &CustomerRepo{db: db} }

func (r *CustomerRepo) FindByExternalID(ctx context.Context, externalID string) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.WithContext(ctx).First(&c, "external_id = ?", externalID).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

// Register links an identity to its customer row. A row added by an admin
// for the same email is claimed instead of duplicated.
func (r *CustomerRepo) Register(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	if c.ExternalID == nil || *c.ExternalID == "" {
		return nil, errors.New("external id is empty")
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	var out domain.Customer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&out, "external_id = ?", *c.ExternalID).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		err = tx.First(&out, "email = ? AND external_id IS NULL", c.Email).Error
		if err == nil {
			out.ExternalID = c.ExternalID
			return tx.Model(&out).Update("external_id", *c.ExternalID).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		out = *c
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with a concurrent first request of the same user
		if existing, ferr := r.FindByExternalID(ctx, *c.ExternalID); ferr == nil {
			return existing, nil
		}
		return nil, translate(err)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

type customerTotals struct {
	Email      string
	OrderCount int64
	TotalSpent decimal.Decimal
}

type latestContact struct {
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
}

func (r *CustomerRepo) ListWithStats(ctx context.Context) ([]domain.CustomerStats, error) {
	db := r.db.WithContext(ctx)
	var customers []domain.Customer
	if err := db.Order("created_at asc").Find(&customers).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CustomerStats, 0, len(customers))
	if len(customers) == 0 {
		return out, nil
	}
	emails := make([]string, 0, len(customers))
	for _, c := range customers {
		emails = append(emails, c.Email)
	}

	var totals []customerTotals
	err := db.Model(&domain.Order{}).
		Select("customer_email AS email, COUNT(*) AS order_count, COALESCE(SUM(total), 0) AS total_spent").
		Where("customer_email IN ?", emails).
		Group("customer_email").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]customerTotals, len(totals))
	for _, t := range totals {
		byEmail[t.Email] = t
	}

	var contacts []latestContact
	err = db.Model(&domain.Order{}).
		Select("customer_email, customer_phone, shipping_address").
		Where("customer_email IN ?", emails).
		Order("created_at desc").
		Scan(&contacts).Error
	if err != nil {
		return nil, err
	}
	latest := make(map[string]latestContact, len(contacts))
	for _, c := range contacts {
		if _, ok := latest[c.CustomerEmail]; !ok {
			latest[c.CustomerEmail] = c
		}
	}

	for _, c := range customers {
		st := domain.CustomerStats{Customer: c, TotalSpent: decimal.Zero}
		if t, ok := byEmail[c.Email]; ok {
			st.OrderCount = t.OrderCount
			st.TotalSpent = t.TotalSpent
		}
		if l, ok := latest[c.Email]; ok {
			st.LastPhone = l.CustomerPhone
			st.Location = l.ShippingAddress
		}
		out = append(out, st)
	}
	return out, nil
}
