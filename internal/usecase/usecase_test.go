package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/adapters/repo/postgres"
	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/testutil"
)

var (
	alice   = &domain.Identity{UserID: "u-alice", Email: "Alice@Example.com", DisplayName: "Alice"}
	bob     = &domain.Identity{UserID: "u-bob", Email: "bob@example.com", DisplayName: "Bob"}
	admin   = &domain.Identity{UserID: "u-admin", Email: "admin@example.com", DisplayName: "Admin", IsAdmin: true}
	shopper = &domain.Identity{UserID: "u-shop", Email: "shop@example.com", DisplayName: "Shop Owner", IsAdmin: true}
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Dispatch(note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

type memStorage struct {
	mu    sync.Mutex
	files map[string]string
}

func (m *memStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := "/uploads/" + uuid.NewString() + "-" + name
	m.files[url] = string(b)
	return url, nil
}

func (m *memStorage) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, url)
	return nil
}

type testEnv struct {
	db        *gorm.DB
	catalog   *CatalogUC
	cart      *CartUC
	orders    *OrderUC
	admin     *AdminUC
	customers *CustomerUC
	notes     *recordingNotifier
	files     *memStorage
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	products := postgres.NewProductRepo(db)
	stores := postgres.NewStoreRepo(db)
	cartRepo := postgres.NewCartRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	customerRepo := postgres.NewCustomerRepo(db)
	notes := &recordingNotifier{}
	files := &memStorage{files: map[string]string{}}
	return &testEnv{
		db: db,
		catalog: &CatalogUC{
			Categories:         postgres.NewCategoryRepo(db),
			Products:           products,
			Stores:             stores,
			Storage:            files,
			AutoCreateCategory: true,
		},
		cart: &CartUC{Cart: cartRepo, Wishlist: postgres.NewWishlistRepo(db), Products: products},
		orders: &OrderUC{
			UoW:          postgres.NewUnitOfWork(db),
			Orders:       orderRepo,
			Products:     products,
			Cart:         cartRepo,
			Notifier:     notes,
			NumberPrefix: "ORD-",
			MaxAttempts:  5,
		},
		admin:     &AdminUC{Orders: orderRepo, Products: products, Stores: stores, Customers: customerRepo},
		customers: &CustomerUC{Customers: customerRepo},
		notes:     notes,
		files:     files,
	}
}

func (e *testEnv) product(t *testing.T, name string, price int64) *domain.Product {
	t.Helper()
	p, err := e.catalog.CreateProduct(context.Background(), admin, ProductInput{
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Category: "General",
		InStock:  true,
		Image:    &Upload{Filename: strings.ToLower(name) + ".png", Content: strings.NewReader("img")},
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&domain.Order{}).Count(&n).Error)
	return n
}

func checkout(lines ...domain.CheckoutLine) domain.Checkout {
	return domain.Checkout{
		Lines:         lines,
		Phone:         "555-0100",
		Address:       "1 Main St",
		Shipping:      decimal.NewFromInt(10),
		Tax:           decimal.NewFromInt(5),
		PaymentMethod: "card",
	}
}

// sequence returns each value in turn, repeating the last one.
func sequence(values ...string) func(string) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(prefix string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		v := values[len(values)-1]
		if i < len(values) {
			v = values[i]
		}
		i++
		return fmt.Sprintf("%s%s", prefix, v), nil
	}
}
