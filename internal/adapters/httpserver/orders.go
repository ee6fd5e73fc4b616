package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/validation"
)

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	co := domain.Checkout{
		Lines:         make([]domain.CheckoutLine, 0, len(req.Items)),
		Phone:         req.Phone,
		Address:       req.Address,
		Shipping:      req.Shipping,
		Tax:           req.Tax,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Total != nil {
		co.Total = decimal.NewNullDecimal(*req.Total)
	}
	for _, it := range req.Items {
		co.Lines = append(co.Lines, domain.CheckoutLine{
			ProductID: uuid.MustParse(it.ProductID),
			Quantity:  it.Quantity,
		})
	}
	o, err := s.orders.PlaceOrder(c.Request.Context(), actor(c), co)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": o.ID, "orderNumber": o.OrderNumber, "total": o.Total})
}

func (s *Server) handleListOrders(c *gin.Context) {
	list, err := s.admin.ListOrders(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := s.orders.GetOrder(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleUpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req validation.UpdateStatusRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	o, err := s.orders.UpdateStatus(c.Request.Context(), actor(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
