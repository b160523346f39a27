// internal/domain/cart/service.go
package cart

import (
	"context"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/infrastructure/database"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// Service handles cart business logic
type Service struct {
	store   Store
	catalog catalog.Reader
	tx      database.Transactor
}

// NewService creates a new cart service
func NewService(store Store, reader catalog.Reader, tx database.Transactor) *Service {
	return &Service{
		store:   store,
		catalog: reader,
		tx:      tx,
	}
}

// SetQuantityRequest represents the PUT body for a cart line
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// Get returns the user's cart; a user who never added anything gets an empty cart.
func (s *Service) Get(ctx context.Context, userID uint) (*Cart, error) {
	lines, err := s.store.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCart(userID, lines), nil
}

// AddOrIncrement adds one unit of productID to the cart.
func (s *Service) AddOrIncrement(ctx context.Context, userID, productID uint) (*Cart, error) {
	if _, err := s.catalog.Product(ctx, productID); err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(ctx context.Context) error {
		return s.store.Increment(ctx, userID, productID)
	})
}

// SetQuantity sets the line to quantity. Zero removes the line, and a
// positive quantity on a missing line creates it. An unknown product is
// reported before a bad quantity.
func (s *Service) SetQuantity(ctx context.Context, userID, productID uint, quantity int) (*Cart, error) {
	if _, err := s.catalog.Product(ctx, productID); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, apperror.InvalidArgument("quantity must be zero or positive")
	}
	if quantity > MaxQuantity {
		return nil, apperror.InvalidArgument("quantity must not exceed %d", MaxQuantity)
	}

	return s.mutate(ctx, userID, func(ctx context.Context) error {
		if quantity == 0 {
			return s.store.Remove(ctx, userID, productID)
		}
		return s.store.SetQuantity(ctx, userID, productID, quantity)
	})
}

// RemoveLine deletes one line; removing an absent line succeeds.
func (s *Service) RemoveLine(ctx context.Context, userID, productID uint) error {
	_, err := s.mutate(ctx, userID, func(ctx context.Context) error {
		return s.store.Remove(ctx, userID, productID)
	})
	return err
}

// Clear empties the cart; clearing an empty cart succeeds.
func (s *Service) Clear(ctx context.Context, userID uint) error {
	_, err := s.mutate(ctx, userID, func(ctx context.Context) error {
		return s.store.Clear(ctx, userID)
	})
	return err
}

// mutate runs fn under the user's cart lock and returns the resulting cart,
// so cart edits queue behind an in-flight checkout for the same user.
func (s *Service) mutate(ctx context.Context, userID uint, fn func(ctx context.Context) error) (*Cart, error) {
	var result *Cart
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Lock(ctx, userID); err != nil {
			return err
		}
		if err := fn(ctx); err != nil {
			return err
		}
		lines, err := s.store.Lines(ctx, userID)
		if err != nil {
			return err
		}
		result = NewCart(userID, lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
