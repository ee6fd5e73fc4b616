package httpserver

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
	"github.com/phenrril/storefront/internal/validation"
)

// productView adds the tag-derived badges to the stored product.
type productView struct {
	domain.Product
	domain.Promotions
}

func viewProduct(p domain.Product) productView {
	return productView{Product: p, Promotions: p.Promotions()}
}

func viewProducts(list []domain.Product) []productView {
	out := make([]productView, 0, len(list))
	for _, p := range list {
		out = append(out, viewProduct(p))
	}
	return out
}

func (s *Server) handleListCategories(c *gin.Context) {
	list, err := s.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var form validation.CategoryForm
	if err := validation.BindFormAndValidate(c, &form, s.validate); err != nil {
		return
	}
	img, closeImg, err := formUpload(c, "image")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	defer closeImg()
	cat, err := s.catalog.CreateCategory(c.Request.Context(), actor(c), usecase.CategoryInput{
		Name:        form.Name,
		Description: form.Description,
		Image:       img,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) handleListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	f := domain.ProductFilter{
		Query:     c.Query("q"),
		Tag:       c.Query("tag"),
		DealsOnly: truthy(c.Query("deals")),
		Sort:      c.Query("sort"),
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if f.PageSize > 200 {
		f.PageSize = 200
	}
	if v := strings.TrimSpace(c.Query("category")); v != "" {
		cat, err := s.catalog.FindCategory(ctx, v)
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"products": []productView{}, "total": 0, "page": f.Page, "pageSize": f.PageSize})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		f.CategoryID = &cat.ID
	}
	if v := strings.TrimSpace(c.Query("store")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			badRequest(c, "store must be a uuid")
			return
		}
		f.StoreID = &id
	}
	list, total, err := s.catalog.ListProducts(ctx, actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": viewProducts(list), "total": total, "page": f.Page, "pageSize": f.PageSize})
}

func (s *Server) handleGetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewProduct(*p))
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	var form validation.ProductForm
	if err := validation.BindFormAndValidate(c, &form, s.validate); err != nil {
		return
	}
	in := usecase.ProductInput{
		Name:          form.Name,
		Description:   form.Description,
		Discount:      form.Discount,
		Category:      form.Category,
		Brand:         form.Brand,
		Rating:        form.Rating,
		Reviews:       form.Reviews,
		InStock:       form.InStock == "" || truthy(form.InStock),
		IsTodaysDeals: truthy(form.IsTodaysDeals),
		StockQuantity: form.StockQuantity,
		Features:      form.Features,
		Tags:          form.Tags,
		Colors:        form.Colors,
	}
	var err error
	if in.Price, err = decimal.NewFromString(form.Price); err != nil {
		badRequest(c, "price must be a number")
		return
	}
	if form.OriginalPrice != "" {
		if in.OriginalPrice.Decimal, err = decimal.NewFromString(form.OriginalPrice); err != nil {
			badRequest(c, "originalPrice must be a number")
			return
		}
		in.OriginalPrice.Valid = true
	}
	if form.StoreID != "" {
		id := uuid.MustParse(form.StoreID)
		in.StoreID = &id
	}

	img, closeImg, err := formUpload(c, "image")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	defer closeImg()
	in.Image = img
	extra, closeExtra, err := formUploads(c, "images")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	defer closeExtra()
	in.Images = extra

	p, err := s.catalog.CreateProduct(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewProduct(*p))
}

// handleUpdateProduct applies only the form fields that were sent.
func (s *Server) handleUpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch usecase.ProductPatch
	var err error
	patch.Name = formString(c, "name")
	patch.Description = formString(c, "description")
	patch.Category = formString(c, "category")
	patch.Brand = formString(c, "brand")
	patch.Colors = formString(c, "colors")
	if patch.Price, err = formDecimal(c, "price"); err != nil {
		badRequest(c, err.Error())
		return
	}
	if v, ok := c.GetPostForm("originalPrice"); ok {
		nd := decimal.NullDecimal{}
		if v = strings.TrimSpace(v); v != "" {
			if nd.Decimal, err = decimal.NewFromString(v); err != nil {
				badRequest(c, "originalPrice must be a number")
				return
			}
			nd.Valid = true
		}
		patch.OriginalPrice = &nd
	}
	for field, dst := range map[string]**int{
		"discount":      &patch.Discount,
		"reviews":       &patch.Reviews,
		"stockQuantity": &patch.StockQuantity,
	} {
		if *dst, err = formInt(c, field); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if patch.Discount != nil && (*patch.Discount < 0 || *patch.Discount > 100) {
		badRequest(c, "discount must be between 0 and 100")
		return
	}
	if v, ok := c.GetPostForm("rating"); ok {
		r, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || r < 0 || r > 5 {
			badRequest(c, "rating must be between 0 and 5")
			return
		}
		patch.Rating = &r
	}
	patch.InStock = formBool(c, "inStock")
	patch.IsTodaysDeals = formBool(c, "isTodaysDeals")
	if v, ok := c.GetPostFormArray("features[]"); ok {
		patch.Features = &v
	}
	if v, ok := c.GetPostFormArray("tags[]"); ok {
		patch.Tags = &v
	}
	img, closeImg, err := formUpload(c, "image")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	defer closeImg()
	patch.Image = img

	p, err := s.catalog.UpdateProduct(c.Request.Context(), actor(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewProduct(*p))
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.catalog.DeleteProduct(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleToggleDeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.catalog.ToggleDeal(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewProduct(*p))
}

func (s *Server) handleListStores(c *gin.Context) {
	list, err := s.catalog.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleMyStore(c *gin.Context) {
	st, err := s.catalog.MyStore(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleCreateStore(c *gin.Context) {
	var req validation.CreateStoreRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	st, err := s.catalog.CreateStore(c.Request.Context(), actor(c), usecase.StoreInput{
		Name:        req.Name,
		Description: req.Description,
		Logo:        req.Logo,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func formString(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

func formBool(c *gin.Context, key string) *bool {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	b := truthy(v)
	return &b
}

func formInt(c *gin.Context, key string) (*int, error) {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return nil, errors.New(key + " must be a non-negative integer")
	}
	return &n, nil
}

func formDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return nil, errors.New(key + " must be a number")
	}
	return &d, nil
}

// formUpload opens the named file field. A missing field yields a nil
// upload; the returned func closes whatever was opened.
func formUpload(c *gin.Context, key string) (*usecase.Upload, func(), error) {
	fh, err := c.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &usecase.Upload{Filename: fh.Filename, Content: f}, func() { f.Close() }, nil
}

func formUploads(c *gin.Context, key string) ([]*usecase.Upload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, nil
	}
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	var out []*usecase.Upload
	for _, fh := range form.File[key] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		out = append(out, &usecase.Upload{Filename: fh.Filename, Content: f})
	}
	return out, closeAll, nil
}
