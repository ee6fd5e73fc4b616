package httpserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/storefront/internal/adapters/repo/postgres"
	"github.com/phenrril/storefront/internal/adapters/storage/localfs"
	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/testutil"
	"github.com/phenrril/storefront/internal/usecase"
)

var testSecret = []byte("test-secret")

func init() { gin.SetMode(gin.TestMode) }

type caller struct {
	sub, email, name string
	admin            bool
}

var (
	alice = caller{sub: "u-alice", email: "alice@example.com", name: "Alice"}
	bob   = caller{sub: "u-bob", email: "bob@example.com", name: "Bob"}
	boss  = caller{sub: "u-boss", email: "boss@example.com", name: "Boss", admin: true}
)

func (c caller) token(t *testing.T) string {
	t.Helper()
	claims := identityClaims{
		Email:   c.email,
		Name:    c.name,
		IsAdmin: c.admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.NewDB(t)
	products := postgres.NewProductRepo(db)
	stores := postgres.NewStoreRepo(db)
	cartRepo := postgres.NewCartRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	customerRepo := postgres.NewCustomerRepo(db)
	return New(Options{IdentitySecret: testSecret},
		&usecase.CatalogUC{
			Categories:         postgres.NewCategoryRepo(db),
			Products:           products,
			Stores:             stores,
			Storage:            localfs.New(t.TempDir(), "/uploads"),
			AutoCreateCategory: true,
		},
		&usecase.CartUC{Cart: cartRepo, Wishlist: postgres.NewWishlistRepo(db), Products: products},
		&usecase.OrderUC{
			UoW:          postgres.NewUnitOfWork(db),
			Orders:       orderRepo,
			Products:     products,
			Cart:         cartRepo,
			NumberPrefix: "ORD-",
			MaxAttempts:  5,
		},
		&usecase.AdminUC{Orders: orderRepo, Products: products, Stores: stores, Customers: customerRepo},
		&usecase.CustomerUC{Customers: customerRepo},
	)
}

func do(t *testing.T, h http.Handler, method, path string, who *caller, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who != nil {
		req.Header.Set("Authorization", "Bearer "+who.token(t))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func doForm(t *testing.T, h http.Handler, method, path string, who *caller, fields map[string][]string, file string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	if file != "" {
		fw, err := mw.CreateFormFile("image", file)
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if who != nil {
		req.Header.Set("Authorization", "Bearer "+who.token(t))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type productJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        string   `json:"price"`
	Image        string   `json:"image"`
	Tags         []string `json:"tags"`
	IsBestSeller bool     `json:"isBestSeller"`
	InStock      bool     `json:"inStock"`
}

func createProduct(t *testing.T, h http.Handler, name, price string) productJSON {
	t.Helper()
	w := doForm(t, h, http.MethodPost, "/api/products", &boss, map[string][]string{
		"name":     {name},
		"price":    {price},
		"category": {"Gadgets"},
		"tags[]":   {"Best Seller"},
	}, "photo.png")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[productJSON](t, w)
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestIdentityAndRoles(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/cart", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doForm(t, h, http.MethodPost, "/api/categories", &alice, map[string][]string{"name": {"Books"}}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode[map[string]any](t, w)["error"])

	w = do(t, h, http.MethodGet, "/api/profile", &alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[struct {
		UserID   string `json:"userId"`
		Customer *struct {
			Email string `json:"email"`
		} `json:"customer"`
	}](t, w)
	assert.Equal(t, "u-alice", profile.UserID)
	require.NotNil(t, profile.Customer, "first authenticated request registers the customer")
	assert.Equal(t, "alice@example.com", profile.Customer.Email)
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestServer(t)
	p := createProduct(t, h, "Lamp", "12.50")
	assert.True(t, p.IsBestSeller)
	assert.True(t, p.InStock)
	assert.Regexp(t, `^/uploads/.+\.png$`, p.Image)

	w := doForm(t, h, http.MethodPost, "/api/products", &boss, map[string][]string{
		"name": {"Lamp"}, "price": {"3"}, "category": {"Gadgets"},
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doForm(t, h, http.MethodPost, "/api/products", &boss, map[string][]string{
		"name": {"Cheap"}, "price": {"abc"}, "category": {"Gadgets"},
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/products?category=Gadgets&tag=best-seller", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Products []productJSON `json:"products"`
		Total    int           `json:"total"`
	}](t, w)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Lamp", list.Products[0].Name)

	w = do(t, h, http.MethodGet, "/api/products?category=Nope", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode[map[string]any](t, w)["total"])

	w = do(t, h, http.MethodGet, "/api/products/"+p.ID, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodGet, "/api/products/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodGet, "/api/products/00000000-0000-0000-0000-000000000001", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doForm(t, h, http.MethodPatch, "/api/products/"+p.ID, &boss, map[string][]string{"price": {"15"}}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode[productJSON](t, w)
	assert.True(t, decimal.NewFromInt(15).Equal(decimal.RequireFromString(patched.Price)))
	assert.Equal(t, "Lamp", patched.Name, "fields not sent are kept")
	assert.Equal(t, []string{"best-seller"}, patched.Tags)

	w = do(t, h, http.MethodGet, "/api/categories", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cats := decode[[]struct {
		Name         string `json:"name"`
		ProductCount int    `json:"productCount"`
	}](t, w)
	require.Len(t, cats, 1)
	assert.Equal(t, 1, cats[0].ProductCount)

	w = do(t, h, http.MethodPost, "/api/products/"+p.ID+"/toggle-deal", &boss, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["isTodaysDeals"])

	w = do(t, h, http.MethodDelete, "/api/products/"+p.ID, &boss, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodDelete, "/api/products/"+p.ID, &boss, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartAndWishlistEndpoints(t *testing.T) {
	h := newTestServer(t)
	p := createProduct(t, h, "Mug", "4.00")

	for i := 0; i < 2; i++ {
		w := do(t, h, http.MethodPost, "/api/cart", &alice, map[string]any{"productId": p.ID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w := do(t, h, http.MethodPost, "/api/cart", &alice, map[string]any{"productId": p.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodPost, "/api/cart", &alice, map[string]any{"productId": "00000000-0000-0000-0000-000000000001"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/cart", &alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[struct {
		Count    int `json:"count"`
		Quantity int `json:"quantity"`
	}](t, w)
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, 2, view.Quantity)

	for i := 0; i < 2; i++ {
		w = do(t, h, http.MethodDelete, "/api/cart", &alice, map[string]any{"productId": p.ID})
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/wishlist", &alice, map[string]any{"productId": p.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["inWishlist"])
	w = do(t, h, http.MethodGet, "/api/wishlist", &alice, nil)
	assert.Len(t, decode[[]productJSON](t, w), 1)
	w = do(t, h, http.MethodPost, "/api/wishlist", &alice, map[string]any{"productId": p.ID})
	assert.Equal(t, false, decode[map[string]any](t, w)["inWishlist"])
}

func TestOrderEndpoints(t *testing.T) {
	h := newTestServer(t)
	p := createProduct(t, h, "Desk", "100")
	do(t, h, http.MethodPost, "/api/cart", &alice, map[string]any{"productId": p.ID})

	body := map[string]any{
		"items":    []map[string]any{{"productId": p.ID, "quantity": 2, "price": "1.00"}},
		"phone":    "555-0100",
		"address":  "1 Main St",
		"shipping": "10",
		"tax":      "5",
	}
	w := do(t, h, http.MethodPost, "/api/orders", &alice, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		ID          string `json:"id"`
		OrderNumber string `json:"orderNumber"`
		Total       string `json:"total"`
	}](t, w)
	assert.Regexp(t, regexp.MustCompile(`^ORD-[A-Z0-9]{6}$`), created.OrderNumber)
	assert.True(t, decimal.RequireFromString("215").Equal(decimal.RequireFromString(created.Total)),
		"client price is ignored, got %s", created.Total)

	w = do(t, h, http.MethodGet, "/api/cart", &alice, nil)
	assert.Equal(t, float64(0), decode[map[string]any](t, w)["count"])

	w = do(t, h, http.MethodPost, "/api/orders", &alice, map[string]any{"items": []any{}, "phone": "1", "address": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodPost, "/api/orders", &alice, map[string]any{
		"items": body["items"], "phone": "1", "address": "x", "shipping": "-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/orders/"+created.ID, &bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, h, http.MethodGet, "/api/orders/"+created.ID, &alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.NotNil(t, got.Items[0].ImageURL)

	w = do(t, h, http.MethodGet, "/api/orders", &alice, nil)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
	w = do(t, h, http.MethodGet, "/api/orders", &bob, nil)
	assert.Len(t, decode[[]map[string]any](t, w), 0)

	status := func(who *caller, s string) int {
		return do(t, h, http.MethodPost, "/api/orders/"+created.ID+"/status", who, map[string]any{"status": s}).Code
	}
	assert.Equal(t, http.StatusForbidden, status(&alice, "shipped"))
	assert.Equal(t, http.StatusBadRequest, status(&boss, "lost"))
	assert.Equal(t, http.StatusOK, status(&boss, "shipped"))
	assert.Equal(t, http.StatusConflict, status(&boss, "pending"))
	assert.Equal(t, http.StatusOK, status(&boss, "delivered"))
	assert.Equal(t, http.StatusConflict, status(&boss, "cancelled"))
	assert.Equal(t, http.StatusNotFound,
		do(t, h, http.MethodPost, "/api/orders/00000000-0000-0000-0000-000000000001/status", &boss, map[string]any{"status": "shipped"}).Code)
}

func TestAdminEndpoints(t *testing.T) {
	h := newTestServer(t)
	createProduct(t, h, "Chair", "40")

	w := do(t, h, http.MethodPost, "/api/admin/users", &boss, map[string]any{"email": "Carol@Example.com", "name": "Carol"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, h, http.MethodPost, "/api/admin/users", &boss, map[string]any{"email": "carol@example.com", "name": "Carol"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, h, http.MethodPost, "/api/admin/users", &boss, map[string]any{"email": "nope", "name": "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/admin/users", &boss, nil)
	require.Equal(t, http.StatusOK, w.Code)
	emails := []string{}
	for _, u := range decode[[]map[string]any](t, w) {
		emails = append(emails, u["email"].(string))
	}
	assert.Contains(t, emails, "carol@example.com")
	assert.Contains(t, emails, "boss@example.com")

	w = do(t, h, http.MethodPost, "/api/stores", &boss, map[string]any{"name": "Boss Shop"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(t, h, http.MethodPost, "/api/stores", &boss, map[string]any{"name": "Second"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, h, http.MethodGet, "/api/stores/mine", &boss, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportProducts(t *testing.T) {
	h := newTestServer(t)
	createProduct(t, h, "Shelf", "75.25")

	w := do(t, h, http.MethodGet, "/api/admin/products/export", &alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodGet, "/api/admin/products/export", &boss, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][1])
	assert.Equal(t, "Shelf", rows[1][1])
	assert.Equal(t, "Gadgets", rows[1][2])
}
