// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *catalog.Service
	log            *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *catalog.Service, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		log:            log,
	}
}

// GetProducts handles GET /products?cat=&minPrice=&maxPrice=&subCategory=
func (h *ProductHandler) GetProducts(c *gin.Context) {
	filter, err := parseProductFilter(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	products, err := h.productService.SearchProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    products,
	})
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.productService.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    p,
	})
}

// CreateProduct handles POST /products (admin)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req catalog.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    p,
	})
}

// UpdateProduct handles PUT /products/:id (admin)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req catalog.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    p,
	})
}

// DeleteProduct handles DELETE /products/:id (admin)
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseProductFilter(c *gin.Context) (catalog.ProductFilter, error) {
	var f catalog.ProductFilter

	if v := c.Query("cat"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return f, apperror.InvalidArgument("invalid category id %q", v)
		}
		f.CategoryID = uint(id)
	}
	f.SubCategory = c.Query("subCategory")

	var err error
	if f.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		return f, err
	}
	return f, nil
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, apperror.InvalidArgument("invalid %s %q", name, v)
	}
	return &d, nil
}
