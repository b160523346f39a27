// internal/domain/cart/entity.go
package cart

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity a cart line can hold; cart_items.quantity
// is a 32-bit column.
const MaxQuantity = math.MaxInt32

// CartItem is one persisted cart row, unique per (user, product)
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// Line is a cart row priced at the product's current catalog price
type Line struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Cart is a user's priced cart. Total is derived, never stored.
type Cart struct {
	UserID    uint            `json:"user_id"`
	Lines     []Line          `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// NewCart prices lines and sums them into a Cart.
func NewCart(userID uint, lines []Line) *Cart {
	c := &Cart{
		UserID: userID,
		Lines:  make([]Line, 0, len(lines)),
		Total:  decimal.Zero,
	}
	for _, l := range lines {
		l.LineTotal = l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		c.Total = c.Total.Add(l.LineTotal)
		c.ItemCount += l.Quantity
		c.Lines = append(c.Lines, l)
	}
	return c
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Store persists cart rows. Every method is scoped to a single user.
type Store interface {
	// Lock takes the user's exclusive cart scope until the surrounding
	// transaction ends. It fails outside a transaction.
	Lock(ctx context.Context, userID uint) error
	// Lines returns the user's rows joined with current prices, by product ID.
	Lines(ctx context.Context, userID uint) ([]Line, error)
	// Increment adds one unit, inserting the row with quantity 1 if absent.
	Increment(ctx context.Context, userID, productID uint) error
	// SetQuantity upserts the row to quantity, which must be positive.
	SetQuantity(ctx context.Context, userID, productID uint, quantity int) error
	Remove(ctx context.Context, userID, productID uint) error
	Clear(ctx context.Context, userID uint) error
}
