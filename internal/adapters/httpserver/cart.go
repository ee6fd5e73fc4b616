package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/validation"
)

func (s *Server) handleGetCart(c *gin.Context) {
	view, err := s.cart.List(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleAddToCart(c *gin.Context) {
	var req validation.CartItemRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	entry, err := s.cart.Add(c.Request.Context(), actor(c), uuid.MustParse(req.ProductID), qty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleRemoveFromCart(c *gin.Context) {
	var req validation.CartItemRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	if err := s.cart.Remove(c.Request.Context(), actor(c), uuid.MustParse(req.ProductID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func (s *Server) handleToggleWishlist(c *gin.Context) {
	var req validation.WishlistRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	added, err := s.cart.ToggleWishlist(c.Request.Context(), actor(c), uuid.MustParse(req.ProductID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productId": req.ProductID, "inWishlist": added})
}

func (s *Server) handleListWishlist(c *gin.Context) {
	list, err := s.cart.ListWishlist(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewProducts(list))
}
