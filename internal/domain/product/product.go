package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/dietary"
	"github.com/xenking/foodhub/internal/domain/geo"
)

// MaxRating is the highest seller rating. A rating of 0 marks an unrated
// seller, which is how freshly listed products start.
const MaxRating = 5

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInvalid is returned when a product record violates its invariants.
	ErrInvalid = errors.New("invalid product")
)

// Product represents a catalog item offered by a local seller.
type Product struct {
	ID           int64
	Name         string
	Description  string
	Price        decimal.Decimal
	ImageURL     string
	Dietary      dietary.Set
	SellerRating int
	Location     geo.Coordinate
}

// Validate checks the invariants every catalog record must satisfy.
func (p Product) Validate() error {
	switch {
	case p.ID <= 0:
		return errors.Wrapf(ErrInvalid, "id %d must be positive", p.ID)
	case p.Name == "":
		return errors.Wrapf(ErrInvalid, "product %d: name required", p.ID)
	case p.Price.IsNegative():
		return errors.Wrapf(ErrInvalid, "product %d: negative price %s", p.ID, p.Price)
	case p.SellerRating < 0 || p.SellerRating > MaxRating:
		return errors.Wrapf(ErrInvalid, "product %d: rating %d out of range", p.ID, p.SellerRating)
	}
	if err := p.Location.Validate(); err != nil {
		return errors.Wrapf(err, "product %d", p.ID)
	}
	return nil
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
}

// MaxID returns the largest id in products, or 0 for an empty slice.
func MaxID(products []Product) int64 {
	var m int64
	for _, p := range products {
		if p.ID > m {
			m = p.ID
		}
	}
	return m
}

// Find returns the product with the given id.
func Find(products []Product, id int64) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
