// internal/domain/checkout/engine.go
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/infrastructure/database"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// Engine turns a user's cart into an order in one transaction.
type Engine struct {
	tx      database.Transactor
	carts   cart.Store
	orders  order.Store
	cfg     config.CheckoutConfig
	log     *logrus.Logger
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
}

// Option customises an Engine
type Option func(*Engine)

// WithClock overrides the order timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a checkout engine
func NewEngine(
	tx database.Transactor,
	carts cart.Store,
	orders order.Store,
	cfg config.CheckoutConfig,
	log *logrus.Logger,
	m *metrics.CheckoutMetrics,
	opts ...Option,
) *Engine {
	e := &Engine{
		tx:      tx,
		carts:   carts,
		orders:  orders,
		cfg:     cfg,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.MaxAttempts < 1 {
		e.cfg.MaxAttempts = 1
	}
	return e
}

// Checkout places an order from the user's cart and empties the cart.
//
// The work runs detached from ctx cancellation, bounded by the configured
// transaction timeout, so a dropped request still ends in commit or rollback.
// Transient store failures are retried with a fresh read of the cart.
func (e *Engine) Checkout(ctx context.Context, userID uint) (*order.Order, error) {
	if userID == 0 {
		return nil, apperror.Unauthorized("user identity is required")
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.TxTimeout)
	defer cancel()

	entry := e.log.WithField("user_id", userID)

	var (
		placed *order.Order
		err    error
	)
	for attempt := 1; ; attempt++ {
		placed, err = e.attempt(ctx, userID)
		if err == nil || !errors.Is(err, database.ErrTransient) || attempt >= e.cfg.MaxAttempts {
			break
		}

		e.metrics.Retries.Inc()
		entry.WithError(err).WithField("attempt", attempt).Warn("checkout transaction failed, retrying")

		if !e.backoff(ctx, attempt) {
			err = ctx.Err()
			break
		}
	}
	e.metrics.LatencyMS.Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		return nil, e.fail(entry, err)
	}

	e.metrics.Outcomes.WithLabelValues("placed").Inc()
	entry.WithFields(logrus.Fields{
		"order_id":     placed.ID,
		"order_number": placed.OrderNumber,
		"lines":        len(placed.Items),
		"total":        placed.Total.String(),
	}).Info("order placed")

	return placed, nil
}

func (e *Engine) attempt(ctx context.Context, userID uint) (*order.Order, error) {
	var placed *order.Order

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := e.carts.Lock(ctx, userID); err != nil {
			return err
		}

		lines, err := e.carts.Lines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperror.EmptyCart()
		}

		o := &order.Order{
			UserID:         userID,
			CreatedAt:      e.now().UTC(),
			ShippingAmount: decimal.Zero,
			Items:          make([]order.LineItem, 0, len(lines)),
		}
		for _, l := range lines {
			o.Items = append(o.Items, order.LineItem{
				ProductID:  l.ProductID,
				SalesPrice: l.Price,
				Quantity:   l.Quantity,
				Discount:   decimal.Zero,
			})
		}

		if err := e.orders.Create(ctx, o); err != nil {
			return err
		}
		if err := e.carts.Clear(ctx, userID); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	placed.ComputeTotal()
	return placed, nil
}

func (e *Engine) backoff(ctx context.Context, attempt int) bool {
	timer := time.NewTimer(e.cfg.RetryBackoff * time.Duration(attempt))
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// fail records the outcome and maps unknown failures to Persistence.
func (e *Engine) fail(entry *logrus.Entry, err error) error {
	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindEmptyCart, apperror.KindUnauthorized:
		e.metrics.Outcomes.WithLabelValues(string(kind)).Inc()
		entry.WithError(err).Info("checkout rejected")
		return err
	}

	e.metrics.Outcomes.WithLabelValues(string(apperror.KindPersistence)).Inc()
	entry.WithError(err).Error("checkout failed")

	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind == apperror.KindPersistence {
		return err
	}
	return apperror.Persistence("failed to place order", err)
}
