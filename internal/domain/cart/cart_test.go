package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub/internal/domain/product"
)

func newTestProduct(id int64, price string) product.Product {
	return product.Product{ID: id, Name: "item", Price: decimal.RequireFromString(price)}
}

func TestCart_AddAggregates(t *testing.T) {
	bread := newTestProduct(1, "7.50")
	jam := newTestProduct(2, "5.00")

	c := Cart{}.Add(bread).Add(jam).Add(bread)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].Product.ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(2), items[1].Product.ID)
	assert.Equal(t, 1, items[1].Quantity)

	assert.Equal(t, 3, c.Count())
	assert.Equal(t, 2, c.Len())
	assert.True(t, decimal.RequireFromString("20.00").Equal(c.Subtotal()))
}

func TestCart_Immutable(t *testing.T) {
	bread := newTestProduct(1, "7.50")

	one := Cart{}.Add(bread)
	two := one.Add(bread)

	assert.Equal(t, 1, one.Count(), "adding must not change the previous cart")
	assert.Equal(t, 2, two.Count())

	removed := two.Remove(1)
	assert.True(t, removed.IsEmpty())
	assert.Equal(t, 2, two.Count())

	items := two.Items()
	items[0].Quantity = 100
	assert.Equal(t, 2, two.Count(), "Items returns a copy")
}

func TestCart_Remove(t *testing.T) {
	c := Cart{}.
		Add(newTestProduct(1, "1")).
		Add(newTestProduct(2, "2")).
		Add(newTestProduct(3, "3"))

	c = c.Remove(2)
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(2)
	assert.False(t, ok)

	same := c.Remove(42)
	assert.Equal(t, c.Items(), same.Items())
}

func TestCart_Clear(t *testing.T) {
	c := Cart{}.Add(newTestProduct(1, "3.25"))

	cleared := c.Clear()
	assert.True(t, cleared.IsEmpty())
	assert.Zero(t, cleared.Count())
	assert.True(t, cleared.Subtotal().IsZero())
	assert.False(t, c.IsEmpty())
}

func TestItem_LineTotal(t *testing.T) {
	tests := []struct {
		price string
		qty   int
		want  string
	}{
		{price: "4.50", qty: 3, want: "13.50"},
		{price: "0.10", qty: 3, want: "0.30"},
		{price: "18", qty: 0, want: "0"},
	}
	for _, tt := range tests {
		it := Item{Product: newTestProduct(1, tt.price), Quantity: tt.qty}
		assert.True(t, decimal.RequireFromString(tt.want).Equal(it.LineTotal()), "%s x %d", tt.price, tt.qty)
	}
}

func TestOf(t *testing.T) {
	lines := []Item{{Product: newTestProduct(5, "2"), Quantity: 4}}
	c := Of(lines...)
	lines[0].Quantity = 1

	got, ok := c.Get(5)
	require.True(t, ok)
	assert.Equal(t, 4, got.Quantity)
	assert.Equal(t, 4, c.Count())
}
