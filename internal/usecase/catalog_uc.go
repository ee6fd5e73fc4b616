package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
)

type CatalogUC struct {
	Categories domain.CategoryRepo
	Products   domain.ProductRepo
	Stores     domain.StoreRepo
	Storage    domain.FileStorage

	// AutoCreateCategory lets a product create the category it names.
	AutoCreateCategory bool
}

type CategoryInput struct {
	Name        string
	Description string
	Image       *Upload
}

type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	OriginalPrice decimal.NullDecimal
	Discount      int
	Category      string
	Brand         string
	Rating        float64
	Reviews       int
	InStock       bool
	IsTodaysDeals bool
	StockQuantity int
	Features      []string
	Tags          []string
	Colors        string
	StoreID       *uuid.UUID
	Image         *Upload
	Images        []*Upload
}

// ProductPatch holds the fields of a partial update. Nil means "keep".
type ProductPatch struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	OriginalPrice *decimal.NullDecimal
	Discount      *int
	Category      *string
	Brand         *string
	Rating        *float64
	Reviews       *int
	InStock       *bool
	IsTodaysDeals *bool
	StockQuantity *int
	Features      *[]string
	Tags          *[]string
	Colors        *string
	Image         *Upload
}

type StoreInput struct {
	Name        string
	Description string
	Logo        string
	OwnerID     string
}

// FindCategory resolves a category by id, or by exact name when the value
// is not an id.
func (uc *CatalogUC) FindCategory(ctx context.Context, idOrName string) (*domain.Category, error) {
	v := strings.TrimSpace(idOrName)
	if v == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrValidation)
	}
	if id, err := uuid.Parse(v); err == nil {
		return uc.Categories.FindByID(ctx, id)
	}
	return uc.Categories.FindByName(ctx, v)
}

// GetOrCreateCategory returns the named category. Unknown names are created
// only when AutoCreateCategory is set.
func (uc *CatalogUC) GetOrCreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	c, err := uc.FindCategory(ctx, name)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return c, err
	}
	if _, perr := uuid.Parse(name); perr == nil {
		return nil, fmt.Errorf("%w: category %s does not exist", domain.ErrValidation, name)
	}
	if !uc.AutoCreateCategory {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, name)
	}
	c = &domain.Category{Name: name}
	if err := uc.Categories.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return uc.Categories.FindByName(ctx, name)
		}
		return nil, err
	}
	log.Info().Str("category", name).Msg("category auto-created")
	return c, nil
}

func (uc *CatalogUC) CreateCategory(ctx context.Context, actor *domain.Identity, in CategoryInput) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrValidation)
	}
	if _, err := uc.Categories.FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: category %q already exists", domain.ErrConflict, name)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	c := &domain.Category{Name: name, Description: in.Description}
	if in.Image != nil {
		url, err := uc.store(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		c.ImageURL = url
	}
	if err := uc.Categories.Create(ctx, c); err != nil {
		uc.discard(ctx, c.ImageURL)
		return nil, err
	}
	return c, nil
}

func (uc *CatalogUC) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return uc.Categories.List(ctx)
}

// ListProducts limits store admins to their own store.
func (uc *CatalogUC) ListProducts(ctx context.Context, actor *domain.Identity, f domain.ProductFilter) ([]domain.Product, int64, error) {
	scope, err := storeScope(ctx, uc.Stores, actor)
	if err != nil {
		return nil, 0, err
	}
	if scope != nil {
		f.StoreID = scope
	}
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	return uc.Products.List(ctx, f)
}

func (uc *CatalogUC) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	return uc.Products.FindByID(ctx, id)
}

func (uc *CatalogUC) CreateProduct(ctx context.Context, actor *domain.Identity, in ProductInput) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}
	if err := checkMoney(in.Price, in.OriginalPrice); err != nil {
		return nil, err
	}
	cat, err := uc.GetOrCreateCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	taken, err := uc.Products.NameTaken(ctx, name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: product %q already exists", domain.ErrConflict, name)
	}
	storeID, err := uc.ownerStore(ctx, actor, in.StoreID)
	if err != nil {
		return nil, err
	}

	p := &domain.Product{
		ID:            uuid.New(),
		Name:          name,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Discount:      in.Discount,
		CategoryID:    cat.ID,
		Brand:         in.Brand,
		Rating:        in.Rating,
		Reviews:       in.Reviews,
		InStock:       in.InStock,
		StockQuantity: in.StockQuantity,
		Features:      nonNil(in.Features),
		Tags:          normalizeTags(in.Tags),
		IsTodaysDeals: in.IsTodaysDeals,
		Colors:        in.Colors,
		StoreID:       storeID,
		Images:        []string{},
	}
	if in.Image != nil {
		if p.ImageURL, err = uc.store(ctx, in.Image); err != nil {
			return nil, err
		}
	}
	for _, up := range in.Images {
		url, err := uc.store(ctx, up)
		if err != nil {
			uc.discard(ctx, append([]string{p.ImageURL}, p.Images...)...)
			return nil, err
		}
		p.Images = append(p.Images, url)
	}
	if err := uc.Products.Create(ctx, p); err != nil {
		uc.discard(ctx, append([]string{p.ImageURL}, p.Images...)...)
		return nil, err
	}
	p.Category = cat
	return p, nil
}

// UpdateProduct applies patch field by field, keeping current values for
// anything the patch leaves nil.
func (uc *CatalogUC) UpdateProduct(ctx context.Context, actor *domain.Identity, id uuid.UUID, patch ProductPatch) (*domain.Product, error) {
	p, err := uc.ownedProduct(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: product name is required", domain.ErrValidation)
		}
		taken, err := uc.Products.NameTaken(ctx, name, p.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: product %q already exists", domain.ErrConflict, name)
		}
		p.Name = name
	}
	if patch.Category != nil {
		cat, err := uc.GetOrCreateCategory(ctx, *patch.Category)
		if err != nil {
			return nil, err
		}
		p.CategoryID = cat.ID
		p.Category = cat
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.OriginalPrice != nil {
		p.OriginalPrice = *patch.OriginalPrice
	}
	if err := checkMoney(p.Price, p.OriginalPrice); err != nil {
		return nil, err
	}
	if patch.Discount != nil {
		p.Discount = *patch.Discount
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.Reviews != nil {
		p.Reviews = *patch.Reviews
	}
	if patch.InStock != nil {
		p.InStock = *patch.InStock
	}
	if patch.IsTodaysDeals != nil {
		p.IsTodaysDeals = *patch.IsTodaysDeals
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	if patch.Features != nil {
		p.Features = nonNil(*patch.Features)
	}
	if patch.Tags != nil {
		p.Tags = normalizeTags(*patch.Tags)
	}
	if patch.Colors != nil {
		p.Colors = *patch.Colors
	}
	oldImage := ""
	if patch.Image != nil {
		url, err := uc.store(ctx, patch.Image)
		if err != nil {
			return nil, err
		}
		oldImage, p.ImageURL = p.ImageURL, url
	}
	if err := uc.Products.Save(ctx, p); err != nil {
		if patch.Image != nil {
			uc.discard(ctx, p.ImageURL)
		}
		return nil, err
	}
	uc.discard(ctx, oldImage)
	return p, nil
}

// DeleteProduct removes the product along with cart and wishlist entries
// for it. Past order items keep their snapshot.
func (uc *CatalogUC) DeleteProduct(ctx context.Context, actor *domain.Identity, id uuid.UUID) error {
	p, err := uc.ownedProduct(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := uc.Products.Delete(ctx, p.ID); err != nil {
		return err
	}
	uc.discard(ctx, append([]string{p.ImageURL}, p.Images...)...)
	return nil
}

func (uc *CatalogUC) ToggleDeal(ctx context.Context, actor *domain.Identity, id uuid.UUID) (*domain.Product, error) {
	p, err := uc.ownedProduct(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	p.IsTodaysDeals = !p.IsTodaysDeals
	if err := uc.Products.SetTodaysDeal(ctx, p.ID, p.IsTodaysDeals); err != nil {
		return nil, err
	}
	return p, nil
}

// ExportProducts returns every product the actor may manage.
func (uc *CatalogUC) ExportProducts(ctx context.Context, actor *domain.Identity) ([]domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	const pageSize = 200
	out := []domain.Product{}
	for page := 1; ; page++ {
		list, total, err := uc.ListProducts(ctx, actor, domain.ProductFilter{Page: page, PageSize: pageSize})
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
		if len(list) == 0 || int64(page*pageSize) >= total {
			break
		}
	}
	return out, nil
}

// CreateStore registers a store. Each owner has at most one.
func (uc *CatalogUC) CreateStore(ctx context.Context, actor *domain.Identity, in StoreInput) (*domain.Store, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: store name is required", domain.ErrValidation)
	}
	owner := strings.TrimSpace(in.OwnerID)
	if owner == "" {
		owner = actor.UserID
	}
	if _, err := uc.Stores.FindByOwner(ctx, owner); err == nil {
		return nil, fmt.Errorf("%w: owner already has a store", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	s := &domain.Store{Name: name, Description: in.Description, LogoURL: in.Logo, OwnerID: owner}
	if err := uc.Stores.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *CatalogUC) ListStores(ctx context.Context) ([]domain.Store, error) {
	return uc.Stores.List(ctx)
}

func (uc *CatalogUC) MyStore(ctx context.Context, actor *domain.Identity) (*domain.Store, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return uc.Stores.FindByOwner(ctx, actor.UserID)
}

// ownedProduct loads a product the admin is allowed to change.
func (uc *CatalogUC) ownedProduct(ctx context.Context, actor *domain.Identity, id uuid.UUID) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	scope, err := storeScope(ctx, uc.Stores, actor)
	if err != nil {
		return nil, err
	}
	if scope != nil && (p.StoreID == nil || *p.StoreID != *scope) {
		return nil, fmt.Errorf("%w: product belongs to another store", domain.ErrPermissionDenied)
	}
	return p, nil
}

// ownerStore picks the store a new product belongs to. Store admins always
// create in their own store.
func (uc *CatalogUC) ownerStore(ctx context.Context, actor *domain.Identity, requested *uuid.UUID) (*uuid.UUID, error) {
	scope, err := storeScope(ctx, uc.Stores, actor)
	if err != nil {
		return nil, err
	}
	if scope != nil {
		return scope, nil
	}
	if requested == nil {
		return nil, nil
	}
	if _, err := uc.Stores.FindByID(ctx, *requested); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: store %s does not exist", domain.ErrValidation, requested)
		}
		return nil, err
	}
	return requested, nil
}

func (uc *CatalogUC) store(ctx context.Context, up *Upload) (string, error) {
	if uc.Storage == nil {
		return "", errors.New("file storage not configured")
	}
	return uc.Storage.Save(ctx, up.Filename, up.Content)
}

// discard deletes stored files, logging failures.
func (uc *CatalogUC) discard(ctx context.Context, urls ...string) {
	if uc.Storage == nil {
		return
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := uc.Storage.Delete(ctx, u); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("file delete")
		}
	}
}

func checkMoney(price decimal.Decimal, original decimal.NullDecimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if original.Valid && original.Decimal.IsNegative() {
		return fmt.Errorf("%w: original price must not be negative", domain.ErrValidation)
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		n := domain.NormalizeTag(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
