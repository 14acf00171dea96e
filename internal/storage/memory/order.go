package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/foodhub/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository with a map.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

// NewOrderRepository returns an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]order.Order)}
}

// Create stores a copy of o. Ids must be unique.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[o.ID]; ok {
		return errors.Errorf("order %q already exists", o.ID)
	}
	stored := *o
	stored.Lines = slices.Clone(o.Lines)
	r.orders[o.ID] = stored
	return nil
}

// GetByID returns a copy of the stored order.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Lines = slices.Clone(o.Lines)
	return &o, nil
}
