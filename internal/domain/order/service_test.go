package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub/internal/domain/cart"
	"github.com/xenking/foodhub/internal/domain/product"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	lastOrder *Order
	err       error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.lastOrder = o
	return m.err
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	if m.lastOrder == nil || m.lastOrder.ID != id {
		return nil, ErrNotFound
	}
	return m.lastOrder, nil
}

// --- Helpers ---

func newTestProduct(id int64, name, price string) product.Product {
	return product.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// --- Tests ---

func TestPlaceOrder_EmptyCart(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)

	_, err := svc.PlaceOrder(context.Background(), cart.Cart{})
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, repo.lastOrder)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	svc := NewService(&mockOrderRepo{})

	c := cart.Of(
		cart.Item{Product: newTestProduct(1, "Bread", "7.50"), Quantity: 1},
		cart.Item{Product: newTestProduct(2, "Jam", "5.00"), Quantity: 0},
	)
	_, err := svc.PlaceOrder(context.Background(), c)

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, int64(2), iqErr.ProductID)
	assert.Equal(t, 0, iqErr.Quantity)
}

func TestPlaceOrder_Totals(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo, WithClock(func() time.Time { return fixedNow }))

	bread := newTestProduct(1, "Bread", "7.50")
	eggs := newTestProduct(6, "Eggs", "4.50")
	c := cart.Cart{}.Add(bread).Add(eggs).Add(bread)

	o, err := svc.PlaceOrder(context.Background(), c)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("19.50").Equal(o.Total))
	assert.Equal(t, 3, o.Count())
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Bread", o.Lines[0].Name)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("15.00").Equal(o.Lines[0].Total))
	assert.Equal(t, fixedNow, o.CreatedAt)

	_, err = uuid.Parse(o.ID)
	require.NoError(t, err)
	assert.Same(t, o, repo.lastOrder)

	// Checkout does not touch the cart it was given.
	assert.Equal(t, 3, c.Count())
}

func TestPlaceOrder_TotalRounded(t *testing.T) {
	svc := NewService(&mockOrderRepo{})

	c := cart.Cart{}.
		Add(newTestProduct(1, "Spice", "0.333")).
		Add(newTestProduct(1, "Spice", "0.333")).
		Add(newTestProduct(1, "Spice", "0.333"))

	o, err := svc.PlaceOrder(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.00").Equal(o.Total), o.Total.String())
}

func TestPlaceOrder_OrderCreateError(t *testing.T) {
	svc := NewService(&mockOrderRepo{err: errors.New("store unavailable")})

	_, err := svc.PlaceOrder(context.Background(), cart.Cart{}.Add(newTestProduct(1, "Bread", "7.50")))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestGet(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)

	o, err := svc.PlaceOrder(context.Background(), cart.Cart{}.Add(newTestProduct(1, "Bread", "7.50")))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
