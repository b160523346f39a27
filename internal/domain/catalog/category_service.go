// internal/domain/catalog/category_service.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/infrastructure/database"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CategoryRequest carries category create and update data
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Categories lists all categories by name
func (s *CategoryService) Categories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	if err := database.Conn(ctx, s.db).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// Category retrieves a single category by ID
func (s *CategoryService) Category(ctx context.Context, id uint) (*Category, error) {
	var category Category
	if err := database.Conn(ctx, s.db).Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("category %d not found", id)
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// CategoryProducts lists the products of one category
func (s *CategoryService) CategoryProducts(ctx context.Context, id uint) ([]Product, error) {
	if _, err := s.Category(ctx, id); err != nil {
		return nil, err
	}

	products := []Product{}
	if err := database.Conn(ctx, s.db).Where("category_id = ?", id).Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve category products: %w", err)
	}
	return products, nil
}

// CreateCategory creates a new category with a unique name
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryRequest) (*Category, error) {
	category := Category{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := database.Conn(ctx, s.db).Create(&category).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict("category %q already exists", req.Name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// UpdateCategory renames or re-describes a category
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryRequest) (*Category, error) {
	category, err := s.Category(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
	}
	if err := database.Conn(ctx, s.db).Model(category).Updates(updates).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict("category %q already exists", req.Name)
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// DeleteCategory removes an empty category
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	db := database.Conn(ctx, s.db)

	var productCount int64
	if err := db.Model(&Product{}).Where("category_id = ?", id).Count(&productCount).Error; err != nil {
		return fmt.Errorf("failed to count category products: %w", err)
	}
	if productCount > 0 {
		return apperror.Conflict("cannot delete category with existing products")
	}

	result := db.Where("id = ?", id).Delete(&Category{})
	if result.Error != nil {
		if database.IsForeignKeyViolation(result.Error) {
			return apperror.Conflict("cannot delete category with existing products")
		}
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("category %d not found", id)
	}
	return nil
}
