package product

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/dietary"
	"github.com/xenking/foodhub/internal/domain/geo"
)

// DefaultMaxDistanceKm is the proximity radius a new session starts with.
const DefaultMaxDistanceKm = 50

// Criteria selects products. Every predicate is inclusive and they combine
// with logical AND.
type Criteria struct {
	// Dietary lists tags a product must all carry. Empty disables the check.
	Dietary dietary.Set
	// MaxPrice is the price ceiling. A null value means no ceiling.
	MaxPrice decimal.NullDecimal
	// MinRating is the lowest accepted seller rating.
	MinRating int
	// MaxDistanceKm is only evaluated when an observer location is known.
	MaxDistanceKm float64
}

// AnyCriteria returns the most permissive criteria. Filtering with them
// returns the input unchanged.
func AnyCriteria() Criteria {
	return Criteria{MaxDistanceKm: math.Inf(1)}
}

// DefaultCriteria returns the filters a buyer starts with: no dietary
// requirement, a ceiling of the catalog's highest price rounded up to a
// whole unit, any rating, and DefaultMaxDistanceKm.
func DefaultCriteria(catalog []Product) Criteria {
	ceiling := decimal.Zero
	for _, p := range catalog {
		if p.Price.GreaterThan(ceiling) {
			ceiling = p.Price
		}
	}
	return Criteria{
		MaxPrice:      decimal.NewNullDecimal(ceiling.Ceil()),
		MaxDistanceKm: DefaultMaxDistanceKm,
	}
}

// CriteriaPatch is a partial update of Criteria. Nil fields are left as-is.
type CriteriaPatch struct {
	Dietary       *dietary.Set
	MaxPrice      *decimal.NullDecimal
	MinRating     *int
	MaxDistanceKm *float64
}

// Merge returns c with every non-nil field of patch applied.
func (c Criteria) Merge(patch CriteriaPatch) Criteria {
	if patch.Dietary != nil {
		c.Dietary = *patch.Dietary
	}
	if patch.MaxPrice != nil {
		c.MaxPrice = *patch.MaxPrice
	}
	if patch.MinRating != nil {
		c.MinRating = *patch.MinRating
	}
	if patch.MaxDistanceKm != nil {
		c.MaxDistanceKm = *patch.MaxDistanceKm
	}
	return c
}

// Match reports whether p satisfies every active predicate of c.
// The proximity predicate is active only when observer is non-nil.
func (c Criteria) Match(p Product, observer *geo.Coordinate) bool {
	if !p.Dietary.ContainsAll(c.Dietary) {
		return false
	}
	if c.MaxPrice.Valid && p.Price.GreaterThan(c.MaxPrice.Decimal) {
		return false
	}
	if p.SellerRating < c.MinRating {
		return false
	}
	if observer != nil && geo.DistanceKm(*observer, p.Location) > c.MaxDistanceKm {
		return false
	}
	return true
}

// Filter returns the products matching c, in input order. The input slice is
// not modified. The result never aliases products.
func Filter(products []Product, c Criteria, observer *geo.Coordinate) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if c.Match(p, observer) {
			out = append(out, p)
		}
	}
	return out
}
