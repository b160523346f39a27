// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/infrastructure/database"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Service handles product business logic
type Service struct {
	db    *gorm.DB
	cache *ProductCache
	log   *logrus.Logger
}

// NewService creates a new product service. cache may be nil.
func NewService(db *gorm.DB, cache *ProductCache, log *logrus.Logger) *Service {
	return &Service{
		db:    db,
		cache: cache,
		log:   log,
	}
}

// ProductFilter narrows a product search. Zero values mean "any".
type ProductFilter struct {
	CategoryID  uint
	SubCategory string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	CategoryID  uint             `json:"category_id" binding:"required"`
	SubCategory string           `json:"sub_category"`
	Stock       int              `json:"stock" binding:"min=0"`
	Featured    bool             `json:"featured"`
	ImageURL    string           `json:"image_url"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *uint            `json:"category_id"`
	SubCategory *string          `json:"sub_category"`
	Stock       *int             `json:"stock"`
	Featured    *bool            `json:"featured"`
	ImageURL    *string          `json:"image_url"`
}

// Product returns a product by ID, consulting the cache first.
func (s *Service) Product(ctx context.Context, id uint) (*Product, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.WithError(err).WithField("product_id", id).Warn("product cache read failed")
		}
	}

	var product Product
	err := database.Conn(ctx, s.db).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product %d not found", id)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, &product); err != nil {
			s.log.WithError(err).WithField("product_id", id).Warn("product cache write failed")
		}
	}

	return &product, nil
}

// SearchProducts lists products matching every set filter field, by ID.
func (s *Service) SearchProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, apperror.InvalidArgument("minPrice must not exceed maxPrice")
	}

	query := database.Conn(ctx, s.db).Model(&Product{})

	if f.CategoryID > 0 {
		query = query.Where("category_id = ?", f.CategoryID)
	}
	if f.SubCategory != "" {
		query = query.Where("LOWER(sub_category) = ?", strings.ToLower(f.SubCategory))
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}

	products := []Product{}
	if err := query.Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return products, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	if req.Price == nil || req.Price.IsNegative() {
		return nil, apperror.InvalidArgument("price must be zero or positive")
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		CategoryID:  req.CategoryID,
		SubCategory: req.SubCategory,
		Stock:       req.Stock,
		Featured:    req.Featured,
		ImageURL:    req.ImageURL,
	}

	if err := database.Conn(ctx, s.db).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &product, nil
}

// UpdateProduct updates an existing product. Past orders keep their own price snapshot.
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	db := database.Conn(ctx, s.db)

	var product Product
	if err := db.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product %d not found", id)
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperror.InvalidArgument("price must be zero or positive")
		}
		updates["price"] = *req.Price
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.SubCategory != nil {
		updates["sub_category"] = *req.SubCategory
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}

	if len(updates) > 0 {
		if err := db.Model(&product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}
	s.invalidate(ctx, id)

	return &product, nil
}

// DeleteProduct removes a product that no cart still holds
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	db := database.Conn(ctx, s.db)

	var inCarts int64
	if err := db.Table("cart_items").Where("product_id = ?", id).Count(&inCarts).Error; err != nil {
		return fmt.Errorf("failed to count cart references: %w", err)
	}
	if inCarts > 0 {
		return apperror.Conflict("cannot delete product %d while it is in a cart", id)
	}

	result := db.Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		if database.IsForeignKeyViolation(result.Error) {
			return apperror.Conflict("cannot delete product %d while it is in a cart", id)
		}
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("product %d not found", id)
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *Service) ensureCategory(ctx context.Context, categoryID uint) error {
	var count int64
	if err := database.Conn(ctx, s.db).Model(&Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return apperror.NotFound("category %d not found", categoryID)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.WithError(err).WithField("product_id", id).Warn("product cache invalidation failed")
	}
}
