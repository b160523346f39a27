// internal/domain/order/service.go
package order

import (
	"context"
)

// Service handles order read logic; orders are created by checkout.
type Service struct {
	store Store
}

// NewService creates a new order service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// History returns the user's order headers, newest first.
func (s *Service) History(ctx context.Context, userID uint) ([]Order, error) {
	orders := []Order{}
	for o, err := range s.store.ListByUser(ctx, userID) {
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Detail returns one of the user's orders with its line items.
func (s *Service) Detail(ctx context.Context, userID, orderID uint) (*Order, error) {
	return s.store.FindForUser(ctx, userID, orderID)
}
