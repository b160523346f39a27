// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
	log         *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, log *logrus.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		log:         log,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.cartService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    result,
	})
}

// AddProduct handles POST /cart/products/:productId
func (h *CartHandler) AddProduct(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	result, err := h.cartService.AddOrIncrement(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    result,
	})
}

// SetQuantity handles PUT /cart/products/:productId
func (h *CartHandler) SetQuantity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var req cart.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.cartService.SetQuantity(c.Request.Context(), userID, productID, *req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    result,
	})
}

// RemoveProduct handles DELETE /cart/products/:productId
func (h *CartHandler) RemoveProduct(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	if err := h.cartService.RemoveLine(c.Request.Context(), userID, productID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
