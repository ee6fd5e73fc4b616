package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/domain"
)

func TestCatalogUC_CreateProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.catalog.CreateProduct(ctx, admin, ProductInput{
		Name:     "Desk Lamp",
		Price:    decimal.RequireFromString("49.90"),
		Category: "Lighting",
		Tags:     []string{"Best Seller", "trending", "best_seller"},
		Image:    &Upload{Filename: "lamp.png", Content: strings.NewReader("png")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"best-seller", "trending"}, p.Tags)
	assert.True(t, p.Promotions().BestSeller)
	assert.True(t, p.Promotions().Trending)
	assert.NotEmpty(t, p.ImageURL)
	assert.Contains(t, e.files.files, p.ImageURL)

	cats, err := e.catalog.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Lighting", cats[0].Name)
	assert.Equal(t, 1, cats[0].ProductCount)
}

func TestCatalogUC_CreateProductRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.product(t, "Lamp", 10)

	_, err := e.catalog.CreateProduct(ctx, alice, ProductInput{Name: "X", Price: decimal.NewFromInt(1), Category: "General"})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	_, err = e.catalog.CreateProduct(ctx, admin, ProductInput{Name: "Lamp", Price: decimal.NewFromInt(1), Category: "General"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, err = e.catalog.CreateProduct(ctx, admin, ProductInput{Name: "lamp", Price: decimal.NewFromInt(1), Category: "General"})
	assert.NoError(t, err, "name uniqueness is case-sensitive")

	_, err = e.catalog.CreateProduct(ctx, admin, ProductInput{Name: "Neg", Price: decimal.NewFromInt(-1), Category: "General"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = e.catalog.CreateProduct(ctx, admin, ProductInput{Name: "NoCat", Price: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCatalogUC_UnknownCategoryPolicy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.catalog.AutoCreateCategory = false

	_, err := e.catalog.CreateProduct(ctx, admin, ProductInput{Name: "Lamp", Price: decimal.NewFromInt(1), Category: "Nowhere"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	cat, err := e.catalog.CreateCategory(ctx, admin, CategoryInput{Name: "Nowhere"})
	require.NoError(t, err)

	_, err = e.catalog.CreateCategory(ctx, admin, CategoryInput{Name: "Nowhere"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	p, err := e.catalog.CreateProduct(ctx, admin, ProductInput{Name: "Lamp", Price: decimal.NewFromInt(1), Category: cat.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, cat.ID, p.CategoryID)
}

func TestCatalogUC_UpdateProductPartial(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Lamp", 10)
	e.product(t, "Chair", 20)

	same := "Lamp"
	brand := "Acme"
	got, err := e.catalog.UpdateProduct(ctx, admin, p.ID, ProductPatch{Name: &same, Brand: &brand})
	require.NoError(t, err, "keeping its own name is not a conflict")
	assert.Equal(t, "Acme", got.Brand)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Price), "untouched fields keep their value")

	taken := "Chair"
	_, err = e.catalog.UpdateProduct(ctx, admin, p.ID, ProductPatch{Name: &taken})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	oldImage := got.ImageURL
	got, err = e.catalog.UpdateProduct(ctx, admin, p.ID, ProductPatch{
		Image: &Upload{Filename: "new.png", Content: strings.NewReader("new")},
	})
	require.NoError(t, err)
	assert.NotEqual(t, oldImage, got.ImageURL)
	assert.NotContains(t, e.files.files, oldImage)

	reloaded, err := e.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", reloaded.Brand)
	assert.Equal(t, got.ImageURL, reloaded.ImageURL)
}

func TestCatalogUC_DeleteProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Lamp", 10)

	require.NoError(t, e.catalog.DeleteProduct(ctx, admin, p.ID))
	assert.NotContains(t, e.files.files, p.ImageURL)

	_, err := e.catalog.GetProduct(ctx, p.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(e.catalog.DeleteProduct(ctx, admin, p.ID), domain.ErrNotFound))
}

func TestCatalogUC_ToggleDeal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Lamp", 10)

	got, err := e.catalog.ToggleDeal(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsTodaysDeals)

	deals, _, err := e.catalog.ListProducts(ctx, nil, domain.ProductFilter{DealsOnly: true})
	require.NoError(t, err)
	require.Len(t, deals, 1)

	got, err = e.catalog.ToggleDeal(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsTodaysDeals)
}

func TestCatalogUC_StoreScoping(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	global := e.product(t, "Global Lamp", 10)

	store, err := e.catalog.CreateStore(ctx, shopper, StoreInput{Name: "Corner Shop"})
	require.NoError(t, err)
	_, err = e.catalog.CreateStore(ctx, shopper, StoreInput{Name: "Second Shop"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	own, err := e.catalog.CreateProduct(ctx, shopper, ProductInput{Name: "Shop Mug", Price: decimal.NewFromInt(3), Category: "General"})
	require.NoError(t, err)
	require.NotNil(t, own.StoreID)
	assert.Equal(t, store.ID, *own.StoreID)

	list, total, err := e.catalog.ListProducts(ctx, shopper, domain.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, own.ID, list[0].ID)

	_, total, err = e.catalog.ListProducts(ctx, admin, domain.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	err = e.catalog.DeleteProduct(ctx, shopper, global.ID)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	rows, err := e.catalog.ExportProducts(ctx, shopper)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	mine, err := e.catalog.MyStore(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, store.ID, mine.ID)
}
