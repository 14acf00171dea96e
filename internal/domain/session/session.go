// Package session holds the state of a single marketplace visit as an
// immutable snapshot. Every transition is a pure function returning a new
// State; the receiver is never modified.
package session

import (
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/assistant"
	"github.com/xenking/foodhub/internal/domain/cart"
	"github.com/xenking/foodhub/internal/domain/dietary"
	"github.com/xenking/foodhub/internal/domain/geo"
	"github.com/xenking/foodhub/internal/domain/product"
)

// View is the page mode of a session.
type View string

const (
	ViewBuyer  View = "buyer"
	ViewSeller View = "seller"
)

// DefaultSellerLocation is where listings without an explicit location are
// placed (downtown Los Angeles).
var DefaultSellerLocation = geo.Coordinate{Latitude: 34.0522, Longitude: -118.2437}

// ErrInvalidDraft is returned by AddProduct for incomplete listings.
var ErrInvalidDraft = errors.New("invalid listing")

// Draft is a product submitted by a seller. It has no id yet.
type Draft struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	// Dietary defaults to no tags, so the listing only shows up while no
	// dietary filter is active.
	Dietary dietary.Set
	// Location overrides the session's seller location when set.
	Location *geo.Coordinate
}

func (d Draft) validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return errors.Wrap(ErrInvalidDraft, "name required")
	case strings.TrimSpace(d.Description) == "":
		return errors.Wrap(ErrInvalidDraft, "description required")
	case d.Price.IsNegative():
		return errors.Wrap(ErrInvalidDraft, "price must not be negative")
	}
	if d.Location != nil {
		if err := d.Location.Validate(); err != nil {
			return errors.Wrap(ErrInvalidDraft, err.Error())
		}
	}
	return nil
}

// State is a session snapshot.
type State struct {
	id              string
	products        []product.Product
	recommendations []product.Product
	cart            cart.Cart
	view            View
	filters         product.Criteria
	defaults        product.Criteria
	observer        *geo.Coordinate
	sellerLocation  geo.Coordinate
	nextID          int64
	createdAt       time.Time
}

// Option configures a new State.
type Option func(*State)

// WithSellerLocation sets where listings without a location are placed.
func WithSellerLocation(c geo.Coordinate) Option {
	return func(s *State) { s.sellerLocation = c }
}

// New returns the initial state for a visit: the whole catalog with default
// filters, buyer view, an empty cart and no known location.
func New(id string, catalog []product.Product, now time.Time, opts ...Option) State {
	defaults := product.DefaultCriteria(catalog)
	s := State{
		id:             id,
		products:       slices.Clone(catalog),
		view:           ViewBuyer,
		filters:        defaults,
		defaults:       defaults,
		sellerLocation: DefaultSellerLocation,
		nextID:         product.MaxID(catalog) + 1,
		createdAt:      now,
	}
	for _, o := range opts {
		o(&s)
	}
	return s
}

func (s State) ID() string { return s.id }

func (s State) View() View { return s.view }

func (s State) Cart() cart.Cart { return s.cart }

func (s State) Filters() product.Criteria { return s.filters }

// DefaultFilters returns the filters the session started with.
func (s State) DefaultFilters() product.Criteria { return s.defaults }

// NextID is the id the next listing or recommendation will receive.
func (s State) NextID() int64 { return s.nextID }

func (s State) CreatedAt() time.Time { return s.createdAt }

// Products returns a copy of the session catalog, newest first.
func (s State) Products() []product.Product { return slices.Clone(s.products) }

// Recommendations returns a copy of the current suggestions.
func (s State) Recommendations() []product.Product { return slices.Clone(s.recommendations) }

// Observer returns the buyer location, if known.
func (s State) Observer() (geo.Coordinate, bool) {
	if s.observer == nil {
		return geo.Coordinate{}, false
	}
	return *s.observer, true
}

// VisibleProducts returns the session catalog filtered by the current
// criteria and observer location.
func (s State) VisibleProducts() []product.Product {
	return product.Filter(s.products, s.filters, s.observer)
}

// Product looks up id among the session catalog, then the recommendations.
func (s State) Product(id int64) (product.Product, error) {
	if p, ok := product.Find(s.products, id); ok {
		return p, nil
	}
	if p, ok := product.Find(s.recommendations, id); ok {
		return p, nil
	}
	return product.Product{}, errors.Wrapf(product.ErrNotFound, "product %d", id)
}

// AddToCart adds one unit of product id, which may be a catalog item or a
// recommendation.
func (s State) AddToCart(id int64) (State, error) {
	p, err := s.Product(id)
	if err != nil {
		return s, err
	}
	s.cart = s.cart.Add(p)
	return s, nil
}

// RemoveFromCart drops the cart line for id.
func (s State) RemoveFromCart(id int64) State {
	s.cart = s.cart.Remove(id)
	return s
}

// ClearCart empties the cart.
func (s State) ClearCart() State {
	s.cart = s.cart.Clear()
	return s
}

// AddProduct lists a seller draft as a new product at the top of the session
// catalog and switches back to the buyer view.
func (s State) AddProduct(d Draft) (State, product.Product, error) {
	if err := d.validate(); err != nil {
		return s, product.Product{}, err
	}
	loc := s.sellerLocation
	if d.Location != nil {
		loc = *d.Location
	}
	p := product.Product{
		ID:          s.nextID,
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Price:       d.Price,
		ImageURL:    d.ImageURL,
		Dietary:     d.Dietary,
		Location:    loc,
	}
	products := make([]product.Product, 0, len(s.products)+1)
	products = append(products, p)
	s.products = append(products, s.products...)
	s.nextID++
	s.view = ViewBuyer
	return s, p, nil
}

// ToggleView switches between buyer and seller mode and drops any
// recommendations.
func (s State) ToggleView() State {
	if s.view == ViewBuyer {
		s.view = ViewSeller
	} else {
		s.view = ViewBuyer
	}
	s.recommendations = nil
	return s
}

// UpdateFilters merges patch into the current filters.
func (s State) UpdateFilters(patch product.CriteriaPatch) State {
	s.filters = s.filters.Merge(patch)
	return s
}

// ResetFilters restores the filters the session started with.
func (s State) ResetFilters() State {
	s.filters = s.defaults
	return s
}

// SetObserver records the buyer location, enabling the proximity filter.
func (s State) SetObserver(c geo.Coordinate) (State, error) {
	if err := c.Validate(); err != nil {
		return s, err
	}
	s.observer = &c
	return s, nil
}

// ClearObserver forgets the buyer location.
func (s State) ClearObserver() State {
	s.observer = nil
	return s
}

// SetRecommendations replaces the recommendations with suggestions derived
// from source. Each suggestion gets a fresh product id.
func (s State) SetRecommendations(source product.Product, suggestions []assistant.Suggestion) State {
	recs := make([]product.Product, len(suggestions))
	for i, sg := range suggestions {
		recs[i] = sg.Product(s.nextID, source.Location)
		s.nextID++
	}
	s.recommendations = recs
	return s
}
