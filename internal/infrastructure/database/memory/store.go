// internal/infrastructure/database/memory/store.go
package memory

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/infrastructure/database"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// Op names a write the store can be told to fail.
type Op string

const (
	OpLock           Op = "lock"
	OpInsertOrder    Op = "insert_order"
	OpInsertLineItem Op = "insert_line_item"
	OpClearCart      Op = "clear_cart"
)

// Store is an in-process implementation of the catalog reader, cart and
// order stores and the transactor. A transaction holds one store-wide
// mutex, which gives the same per-user exclusion as the advisory lock.
type Store struct {
	mu       sync.Mutex
	products map[uint]catalog.Product
	carts    map[uint]map[uint]int
	orders   []order.Order
	nextID   uint
	nextLine uint
	fault    func(Op) error
}

var (
	_ catalog.Reader      = (*Store)(nil)
	_ cart.Store          = (*Store)(nil)
	_ order.Store         = (*Store)(nil)
	_ database.Transactor = (*Store)(nil)
)

type txKey struct{}

// New creates an empty store
func New() *Store {
	return &Store{
		products: make(map[uint]catalog.Product),
		carts:    make(map[uint]map[uint]int),
	}
}

// PutProduct inserts or replaces a catalog product.
func (s *Store) PutProduct(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SetFault installs f, consulted before every named write. Nil clears it.
func (s *Store) SetFault(f func(Op) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// OrderCount returns the number of committed orders across all users.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type snapshot struct {
	carts    map[uint]map[uint]int
	orders   int
	nextID   uint
	nextLine uint
}

// WithinTransaction runs fn under the store mutex and undoes its writes on error.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		carts:    make(map[uint]map[uint]int, len(s.carts)),
		orders:   len(s.orders),
		nextID:   s.nextID,
		nextLine: s.nextLine,
	}
	for userID, lines := range s.carts {
		snap.carts[userID] = maps.Clone(lines)
	}

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.carts = snap.carts
		s.orders = s.orders[:snap.orders]
		s.nextID = snap.nextID
		s.nextLine = snap.nextLine
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// acquire locks the store unless ctx is inside one of its transactions.
func (s *Store) acquire(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) check(op Op) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op)
}

// Product implements catalog.Reader
func (s *Store) Product(ctx context.Context, id uint) (*catalog.Product, error) {
	defer s.acquire(ctx)()
	p, ok := s.products[id]
	if !ok {
		return nil, apperror.NotFound("product %d not found", id)
	}
	return &p, nil
}

// Lock implements cart.Store
func (s *Store) Lock(ctx context.Context, userID uint) error {
	if !s.inTx(ctx) {
		return database.ErrNoTransaction
	}
	return s.check(OpLock)
}

// Lines implements cart.Store
func (s *Store) Lines(ctx context.Context, userID uint) ([]cart.Line, error) {
	defer s.acquire(ctx)()

	rows := s.carts[userID]
	lines := make([]cart.Line, 0, len(rows))
	for _, productID := range slices.Sorted(maps.Keys(rows)) {
		p, ok := s.products[productID]
		if !ok {
			continue
		}
		lines = append(lines, cart.Line{
			ProductID: productID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  rows[productID],
		})
	}
	return lines, nil
}

// Increment implements cart.Store
func (s *Store) Increment(ctx context.Context, userID, productID uint) error {
	defer s.acquire(ctx)()
	lines := s.userCart(userID)
	if lines[productID] >= cart.MaxQuantity {
		return apperror.InvalidArgument("quantity must not exceed %d", cart.MaxQuantity)
	}
	lines[productID]++
	return nil
}

// SetQuantity implements cart.Store
func (s *Store) SetQuantity(ctx context.Context, userID, productID uint, quantity int) error {
	defer s.acquire(ctx)()
	if quantity < 1 || quantity > cart.MaxQuantity {
		return apperror.InvalidArgument("quantity must be between 1 and %d, got %d", cart.MaxQuantity, quantity)
	}
	s.userCart(userID)[productID] = quantity
	return nil
}

// Remove implements cart.Store
func (s *Store) Remove(ctx context.Context, userID, productID uint) error {
	defer s.acquire(ctx)()
	delete(s.carts[userID], productID)
	return nil
}

// Clear implements cart.Store
func (s *Store) Clear(ctx context.Context, userID uint) error {
	defer s.acquire(ctx)()
	if err := s.check(OpClearCart); err != nil {
		return err
	}
	delete(s.carts, userID)
	return nil
}

func (s *Store) userCart(userID uint) map[uint]int {
	rows, ok := s.carts[userID]
	if !ok {
		rows = make(map[uint]int)
		s.carts[userID] = rows
	}
	return rows
}

// Create implements order.Store
func (s *Store) Create(ctx context.Context, o *order.Order) error {
	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.check(OpInsertOrder); err != nil {
			return err
		}
		s.nextID++
		o.ID = s.nextID
		o.OrderNumber = order.FormatOrderNumber(o.CreatedAt, o.ID)

		stored := *o
		stored.Items = make([]order.LineItem, len(o.Items))
		for i := range o.Items {
			if err := s.check(OpInsertLineItem); err != nil {
				return err
			}
			s.nextLine++
			o.Items[i].ID = s.nextLine
			o.Items[i].OrderID = o.ID
			stored.Items[i] = o.Items[i]
		}
		s.orders = append(s.orders, stored)
		return nil
	})
}

// ListByUser implements order.Store
func (s *Store) ListByUser(ctx context.Context, userID uint) iter.Seq2[order.Order, error] {
	return func(yield func(order.Order, error) bool) {
		release := s.acquire(ctx)
		var headers []order.Order
		for _, o := range s.orders {
			if o.UserID != userID {
				continue
			}
			o.ComputeTotal()
			o.Items = nil
			headers = append(headers, o)
		}
		release()

		slices.SortFunc(headers, func(a, b order.Order) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return int(b.ID) - int(a.ID)
		})
		for _, o := range headers {
			if !yield(o, nil) {
				return
			}
		}
	}
}

// FindForUser implements order.Store
func (s *Store) FindForUser(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	defer s.acquire(ctx)()
	for _, o := range s.orders {
		if o.ID == orderID && o.UserID == userID {
			o.Items = slices.Clone(o.Items)
			o.ComputeTotal()
			return &o, nil
		}
	}
	return nil, apperror.NotFound("order %d not found", orderID)
}

// Price is a convenience for tests building catalog products.
func Price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
