// internal/domain/catalog/entity.go
package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog entry
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	SubCategory string          `gorm:"size:255" json:"sub_category"`
	Stock       int             `gorm:"default:0" json:"stock"`
	Featured    bool            `gorm:"default:false" json:"featured"`
	ImageURL    string          `gorm:"size:500" json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Category groups products
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }

// Reader answers whether a product exists and what it costs right now.
type Reader interface {
	Product(ctx context.Context, id uint) (*Product, error)
}
