// internal/domain/order/entity.go
package order

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"
)

// Order is an immutable record of one checkout. Total is computed on read.
type Order struct {
	ID             uint            `gorm:"column:order_id;primaryKey" json:"order_id"`
	OrderNumber    string          `gorm:"size:50;uniqueIndex" json:"order_number"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	CreatedAt      time.Time       `json:"created_at"`
	Address        string          `gorm:"size:255" json:"address"`
	City           string          `gorm:"size:100" json:"city"`
	State          string          `gorm:"size:100" json:"state"`
	Zip            string          `gorm:"size:20" json:"zip"`
	ShippingAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_amount"`
	Total          decimal.Decimal `gorm:"-" json:"total"`

	Items []LineItem `gorm:"foreignKey:OrderID;references:ID" json:"items,omitempty"`
}

// LineItem is a frozen copy of one cart line at checkout
type LineItem struct {
	ID         uint            `gorm:"column:line_id;primaryKey" json:"line_id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	ProductID  uint            `gorm:"not null" json:"product_id"`
	SalesPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"sales_price"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Discount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
}

// TableName overrides
func (Order) TableName() string    { return "orders" }
func (LineItem) TableName() string { return "order_line_items" }

// Subtotal is salesPrice × quantity − discount
func (li LineItem) Subtotal() decimal.Decimal {
	return li.SalesPrice.Mul(decimal.NewFromInt(int64(li.Quantity))).Sub(li.Discount)
}

// ComputeTotal sets Total from the loaded line items plus shipping.
func (o *Order) ComputeTotal() {
	total := o.ShippingAmount
	for _, li := range o.Items {
		total = total.Add(li.Subtotal())
	}
	o.Total = total
}

// FormatOrderNumber renders the human readable number: ORD-YYYYMMDD-XXXXX
func FormatOrderNumber(createdAt time.Time, orderID uint) string {
	return fmt.Sprintf("ORD-%s-%05d", createdAt.UTC().Format("20060102"), orderID)
}

// Store persists orders. Orders are never updated after Create.
type Store interface {
	// Create inserts the header and items together, joining the
	// caller's transaction when ctx carries one. IDs are filled in.
	Create(ctx context.Context, o *Order) error
	// ListByUser yields the user's order headers newest first, with totals.
	// Each range over the sequence runs the query again.
	ListByUser(ctx context.Context, userID uint) iter.Seq2[Order, error]
	// FindForUser loads one order with items. Orders of other users are not found.
	FindForUser(ctx context.Context, userID, orderID uint) (*Order, error)
}
