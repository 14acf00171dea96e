package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/cart"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNotFound  = errors.New("order not found")
)

// InvalidQuantityError indicates a cart line has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d, got %d", e.ProductID, e.Quantity)
}

// Service encapsulates checkout business logic.
type Service struct {
	orders Repository
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an order Service persisting into orders.
func NewService(orders Repository, opts ...Option) *Service {
	s := &Service{
		orders: orders,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PlaceOrder validates the cart lines, totals them, persists the order and
// returns it. The cart itself is not modified; clearing it is up to the caller.
func (s *Service) PlaceOrder(ctx context.Context, c cart.Cart) (*Order, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]Line, len(items))
	total := decimal.Zero
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: it.Product.ID, Quantity: it.Quantity}
		}
		lineTotal := it.LineTotal()
		lines[i] = Line{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			UnitPrice: it.Product.Price,
			Quantity:  it.Quantity,
			Total:     lineTotal.Round(2),
		}
		total = total.Add(lineTotal)
	}

	o := &Order{
		ID:        uuid.New().String(),
		Lines:     lines,
		Total:     total.Round(2),
		CreatedAt: s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get returns a previously placed order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}
