package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/validation"
)

func (s *Server) handleProfile(c *gin.Context) {
	p, err := s.customers.Profile(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleListUsers(c *gin.Context) {
	list, err := s.admin.ListUsers(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleAddUser(c *gin.Context) {
	var req validation.AddUserRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	cust := &domain.Customer{
		Email:   req.Email,
		Name:    req.Name,
		Phone:   req.Phone,
		IsAdmin: req.IsAdmin,
	}
	if err := s.admin.AddUser(c.Request.Context(), actor(c), cust); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

var exportHeader = []interface{}{
	"ID", "Name", "Category", "Brand", "Price", "Original price", "Discount",
	"In stock", "Stock", "Today's deal", "Tags", "Image",
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportProducts streams the products the caller manages as a
// spreadsheet, one row per product.
func (s *Server) handleExportProducts(c *gin.Context) {
	list, err := s.catalog.ExportProducts(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	f, err := productsWorkbook(list)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		respondError(c, err)
		return
	}
	name := fmt.Sprintf("products_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func productsWorkbook(list []domain.Product) (*excelize.File, error) {
	const sheet = "Products"
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		f.Close()
		return nil, err
	}
	for i, p := range list {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		original := ""
		if p.OriginalPrice.Valid {
			original = p.OriginalPrice.Decimal.StringFixed(2)
		}
		price, _ := p.Price.Float64()
		row := []interface{}{
			p.ID.String(), p.Name, category, p.Brand, price, original, p.Discount,
			p.InStock, p.StockQuantity, p.IsTodaysDeals, strings.Join(p.Tags, ","), p.ImageURL,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	_ = f.SetColWidth(sheet, "B", "B", 40)
	return f, nil
}
