package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the receipt of a simulated checkout. No payment is taken.
type Order struct {
	ID        string
	Lines     []Line
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Line is a single purchased product at the price it had in the cart.
type Line struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
}

// Count returns the number of units across all lines.
func (o *Order) Count() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Repository defines storage operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
}
