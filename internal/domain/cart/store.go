// internal/domain/cart/store.go
package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/infrastructure/database"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cartLockNamespace is the first key of the two-key advisory lock, so cart
// locks never collide with other advisory lock users of the database.
const cartLockNamespace int32 = 0x43415254

// GormStore implements Store on PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new cart store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Lock takes a transaction-scoped advisory lock on the user's cart.
// Holders on every service instance queue behind it until commit or rollback.
func (s *GormStore) Lock(ctx context.Context, userID uint) error {
	if !database.InTransaction(ctx) {
		return database.ErrNoTransaction
	}
	err := database.Conn(ctx, s.db).
		Exec("SELECT pg_advisory_xact_lock(?, ?)", cartLockNamespace, int32(userID)).Error
	if err != nil {
		return fmt.Errorf("failed to lock cart: %w", err)
	}
	return nil
}

type lineRow struct {
	ProductID uint
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// Lines reads the cart joined with the catalog for current prices
func (s *GormStore) Lines(ctx context.Context, userID uint) ([]Line, error) {
	var rows []lineRow
	err := database.Conn(ctx, s.db).
		Table("cart_items AS ci").
		Select("ci.product_id, p.name, p.price, ci.quantity").
		Joins("JOIN products AS p ON p.id = ci.product_id").
		Where("ci.user_id = ?", userID).
		Order("ci.product_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart lines: %w", err)
	}

	lines := make([]Line, len(rows))
	for i, r := range rows {
		lines[i] = Line{ProductID: r.ProductID, Name: r.Name, Price: r.Price, Quantity: r.Quantity}
	}
	return lines, nil
}

// Increment bumps an existing row by one or inserts it with quantity 1.
// A row already at MaxQuantity is left unchanged and reported as InvalidArgument.
func (s *GormStore) Increment(ctx context.Context, userID, productID uint) error {
	item := CartItem{UserID: userID, ProductID: productID, Quantity: 1}
	result := database.Conn(ctx, s.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + 1"),
			"updated_at": gorm.Expr("NOW()"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{Column: clause.Column{Table: "cart_items", Name: "quantity"}, Value: MaxQuantity},
		}},
	}).Create(&item)
	if result.Error != nil {
		return writeError("failed to add cart item", productID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.InvalidArgument("quantity must not exceed %d", MaxQuantity)
	}
	return nil
}

// SetQuantity writes the row's quantity, inserting it if absent
func (s *GormStore) SetQuantity(ctx context.Context, userID, productID uint, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return apperror.InvalidArgument("quantity must be between 1 and %d, got %d", MaxQuantity, quantity)
	}
	item := CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	err := database.Conn(ctx, s.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&item).Error
	if err != nil {
		return writeError("failed to set cart quantity", productID, err)
	}
	return nil
}

// writeError maps a product deleted since the catalog check to NotFound.
func writeError(msg string, productID uint, err error) error {
	if database.IsForeignKeyViolation(err) {
		return apperror.NotFound("product %d not found", productID)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Remove deletes one row; a missing row is not an error
func (s *GormStore) Remove(ctx context.Context, userID, productID uint) error {
	err := database.Conn(ctx, s.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear deletes every row of the user's cart
func (s *GormStore) Clear(ctx context.Context, userID uint) error {
	err := database.Conn(ctx, s.db).
		Where("user_id = ?", userID).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
