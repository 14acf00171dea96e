// Package memory provides process-local storage for the catalog, sessions
// and orders. Nothing survives a restart.
package memory

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/foodhub/internal/domain/product"
)

var _ product.Repository = (*Catalog)(nil)

// Catalog implements product.Repository over a fixed product list.
type Catalog struct {
	products []product.Product
	byID     map[int64]int
}

// NewCatalog returns a Catalog serving products in the given order.
func NewCatalog(products []product.Product) *Catalog {
	c := &Catalog{
		products: slices.Clone(products),
		byID:     make(map[int64]int, len(products)),
	}
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

// List returns a copy of every product in catalog order.
func (c *Catalog) List(_ context.Context) ([]product.Product, error) {
	return slices.Clone(c.products), nil
}

// GetByID returns a single product by its identifier.
func (c *Catalog) GetByID(_ context.Context, id int64) (*product.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, errors.Wrapf(product.ErrNotFound, "product %d", id)
	}
	p := c.products[i]
	return &p, nil
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.products) }
