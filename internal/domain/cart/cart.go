// Package cart implements the buyer's shopping cart as an immutable value.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/product"
)

// Item is a cart line: a product snapshot and how many of it were added.
type Item struct {
	Product  product.Product
	Quantity int
}

// LineTotal returns price multiplied by quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is an ordered list of lines, at most one per product id.
// Methods never modify the receiver; they return a new Cart.
type Cart struct {
	items []Item
}

// Of builds a cart from existing lines, kept exactly as given.
func Of(items ...Item) Cart {
	return Cart{items: append([]Item(nil), items...)}
}

// Add returns a cart with one more unit of p. An existing line for p.ID is
// incremented in place, otherwise a new line with quantity 1 is appended.
func (c Cart) Add(p product.Product) Cart {
	out := make([]Item, len(c.items), len(c.items)+1)
	copy(out, c.items)
	for i := range out {
		if out[i].Product.ID == p.ID {
			out[i].Quantity++
			return Cart{items: out}
		}
	}
	return Cart{items: append(out, Item{Product: p, Quantity: 1})}
}

// Remove returns a cart without the line for id. Removing an absent id is a
// no-op.
func (c Cart) Remove(id int64) Cart {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if it.Product.ID != id {
			out = append(out, it)
		}
	}
	return Cart{items: out}
}

// Clear returns an empty cart.
func (Cart) Clear() Cart {
	return Cart{}
}

// Items returns a copy of the cart lines in insertion order.
func (c Cart) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Get returns the line for id.
func (c Cart) Get(id int64) (Item, bool) {
	for _, it := range c.items {
		if it.Product.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Len returns the number of distinct lines.
func (c Cart) Len() int { return len(c.items) }

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c.items) == 0 }

// Count returns the total number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Subtotal returns the sum of every line total.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.LineTotal())
	}
	return total
}
