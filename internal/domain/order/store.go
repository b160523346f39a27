// internal/domain/order/store.go
package order

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/your-org/storefront-backend/internal/infrastructure/database"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

const listByUserSQL = `
SELECT o.order_id, COALESCE(o.order_number, ''), o.user_id, o.created_at,
       o.address, o.city, o.state, o.zip, o.shipping_amount,
       o.shipping_amount + COALESCE(SUM(li.sales_price * li.quantity - li.discount), 0) AS total
FROM orders AS o
LEFT JOIN order_line_items AS li ON li.order_id = o.order_id
WHERE o.user_id = ?
GROUP BY o.order_id
ORDER BY o.created_at DESC, o.order_id DESC`

// GormStore implements Store on PostgreSQL
type GormStore struct {
	db *gorm.DB
	tx database.Transactor
}

// NewGormStore creates a new order store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
		tx: database.NewGormTransactor(db),
	}
}

// Create inserts the order header, stamps its number, then inserts the items
func (s *GormStore) Create(ctx context.Context, o *Order) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		db := database.Conn(ctx, s.db)

		if err := db.Omit("Items", "OrderNumber").Create(o).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		o.OrderNumber = FormatOrderNumber(o.CreatedAt, o.ID)
		if err := db.Model(o).Update("order_number", o.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to assign order number: %w", err)
		}

		if len(o.Items) == 0 {
			return nil
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
		}
		if err := db.Create(&o.Items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		return nil
	})
}

// ListByUser streams order headers newest first with SQL-computed totals
func (s *GormStore) ListByUser(ctx context.Context, userID uint) iter.Seq2[Order, error] {
	return func(yield func(Order, error) bool) {
		rows, err := database.Conn(ctx, s.db).Raw(listByUserSQL, userID).Rows()
		if err != nil {
			yield(Order{}, fmt.Errorf("failed to retrieve orders: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var o Order
			err := rows.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.CreatedAt,
				&o.Address, &o.City, &o.State, &o.Zip, &o.ShippingAmount, &o.Total)
			if err != nil {
				yield(Order{}, fmt.Errorf("failed to scan order: %w", err))
				return
			}
			if !yield(o, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Order{}, fmt.Errorf("failed to iterate orders: %w", err))
		}
	}
}

// FindForUser loads one of the user's orders with its items
func (s *GormStore) FindForUser(ctx context.Context, userID, orderID uint) (*Order, error) {
	var o Order
	err := database.Conn(ctx, s.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_id ASC")
		}).
		Where("order_id = ? AND user_id = ?", orderID, userID).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order %d not found", orderID)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	o.ComputeTotal()
	return &o, nil
}
