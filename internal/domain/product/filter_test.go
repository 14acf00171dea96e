package product

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub/internal/domain/dietary"
	"github.com/xenking/foodhub/internal/domain/geo"
)

var downtownLA = geo.Coordinate{Latitude: 34.0522, Longitude: -118.2437}

func testCatalog() []Product {
	return []Product{
		{ID: 1, Name: "Sourdough", Price: decimal.RequireFromString("7.50"), Dietary: dietary.Of(dietary.Vegan, dietary.Vegetarian, dietary.NutFree), SellerRating: 5, Location: downtownLA},
		{ID: 2, Name: "Jam", Price: decimal.RequireFromString("5.00"), Dietary: dietary.Of(dietary.Vegan, dietary.Vegetarian, dietary.GlutenFree, dietary.NutFree), SellerRating: 4, Location: geo.Coordinate{Latitude: 34.0622, Longitude: -118.2537}},
		{ID: 3, Name: "Curry", Price: decimal.RequireFromString("15.00"), Dietary: dietary.Of(dietary.NutFree), SellerRating: 5, Location: geo.Coordinate{Latitude: 34.1016, Longitude: -118.3437}},
		{ID: 4, Name: "Cookies", Price: decimal.RequireFromString("12.00"), Dietary: dietary.Of(dietary.Vegetarian), SellerRating: 4, Location: geo.Coordinate{Latitude: 33.9522, Longitude: -118.2437}},
		{ID: 6, Name: "Eggs", Price: decimal.RequireFromString("4.50"), Dietary: dietary.Of(dietary.Vegetarian, dietary.GlutenFree, dietary.NutFree), SellerRating: 3, Location: geo.Coordinate{Latitude: 34.1522, Longitude: -118.2437}},
		{ID: 7, Name: "Ravioli", Price: decimal.RequireFromString("18.00"), Dietary: dietary.Of(dietary.Vegetarian), SellerRating: 4, Location: geo.Coordinate{Latitude: 33.8522, Longitude: -118.2437}},
		{ID: 9, Name: "New listing", Price: decimal.RequireFromString("9.99"), SellerRating: 0, Location: downtownLA},
	}
}

func ids(products []Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestFilter_AnyCriteriaIsIdentity(t *testing.T) {
	catalog := testCatalog()

	got := Filter(catalog, AnyCriteria(), nil)
	assert.Equal(t, catalog, got)

	got = Filter(catalog, AnyCriteria(), &downtownLA)
	assert.Equal(t, catalog, got, "infinite distance keeps every product")

	assert.Empty(t, Filter(nil, AnyCriteria(), nil))
}

func TestFilter_Dietary(t *testing.T) {
	catalog := testCatalog()

	vegan := AnyCriteria()
	vegan.Dietary = dietary.Of(dietary.Vegan)
	got := Filter(catalog, vegan, nil)
	assert.Equal(t, []int64{1, 2}, ids(got))
	for _, p := range got {
		assert.True(t, p.Dietary.Has(dietary.Vegan))
	}

	strict := AnyCriteria()
	strict.Dietary = dietary.Of(dietary.Vegetarian, dietary.GlutenFree)
	assert.Equal(t, []int64{2, 6}, ids(Filter(catalog, strict, nil)))

	// An untagged listing never satisfies a non-empty dietary requirement.
	for _, p := range Filter(catalog, strict, nil) {
		assert.NotEqual(t, int64(9), p.ID)
	}
}

func TestFilter_MaxPrice(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name     string
		maxPrice string
		want     []int64
	}{
		{name: "boundary is inclusive", maxPrice: "12.00", want: []int64{1, 2, 4, 6, 9}},
		{name: "just below boundary", maxPrice: "11.99", want: []int64{1, 2, 6, 9}},
		{name: "cheapest only", maxPrice: "4.50", want: []int64{6}},
		{name: "nothing", maxPrice: "1", want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := AnyCriteria()
			c.MaxPrice = decimal.NewNullDecimal(decimal.RequireFromString(tt.maxPrice))

			got := Filter(catalog, c, nil)
			assert.Equal(t, tt.want, ids(got))
			for _, p := range got {
				assert.True(t, p.Price.LessThanOrEqual(c.MaxPrice.Decimal))
			}
		})
	}
}

func TestFilter_MinRating(t *testing.T) {
	catalog := testCatalog()

	c := AnyCriteria()
	c.MinRating = 4
	assert.Equal(t, []int64{1, 2, 3, 4, 7}, ids(Filter(catalog, c, nil)))

	c.MinRating = 5
	assert.Equal(t, []int64{1, 3}, ids(Filter(catalog, c, nil)))
}

func TestFilter_Proximity(t *testing.T) {
	catalog := testCatalog()

	c := AnyCriteria()
	c.MaxDistanceKm = 10

	got := Filter(catalog, c, &downtownLA)
	assert.Contains(t, ids(got), int64(1), "product at the observer location is kept")
	assert.Contains(t, ids(got), int64(9))
	assert.NotContains(t, ids(got), int64(4), "product ~11.1 km away is excluded")
	for _, p := range got {
		assert.LessOrEqual(t, geo.DistanceKm(downtownLA, p.Location), 10.0)
	}

	// Without an observer the proximity predicate is inactive.
	assert.Equal(t, catalog, Filter(catalog, c, nil))
}

func TestFilter_ProximityBoundaryInclusive(t *testing.T) {
	catalog := testCatalog()
	cookies := catalog[3]

	c := AnyCriteria()
	c.MaxDistanceKm = geo.DistanceKm(downtownLA, cookies.Location)

	assert.Contains(t, ids(Filter(catalog, c, &downtownLA)), cookies.ID)
}

func TestFilter_Combined(t *testing.T) {
	c := Criteria{
		Dietary:       dietary.Of(dietary.Vegetarian),
		MaxPrice:      decimal.NewNullDecimal(decimal.NewFromInt(15)),
		MinRating:     4,
		MaxDistanceKm: 25,
	}
	got := Filter(testCatalog(), c, &downtownLA)
	assert.Equal(t, []int64{1, 2, 4}, ids(got))
}

func TestFilter_OrderPreservingAndIdempotent(t *testing.T) {
	catalog := testCatalog()
	c := AnyCriteria()
	c.MinRating = 4
	c.MaxDistanceKm = 25

	first := Filter(catalog, c, &downtownLA)
	second := Filter(catalog, c, &downtownLA)
	assert.Equal(t, first, second)

	// Output positions must increase monotonically in the input.
	pos := make(map[int64]int, len(catalog))
	for i, p := range catalog {
		pos[p.ID] = i
	}
	for i := 1; i < len(first); i++ {
		assert.Less(t, pos[first[i-1].ID], pos[first[i].ID])
	}

	// Refiltering the output is a no-op.
	assert.Equal(t, first, Filter(first, c, &downtownLA))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	catalog := testCatalog()
	snapshot := testCatalog()

	c := AnyCriteria()
	c.Dietary = dietary.Of(dietary.Vegan)
	got := Filter(catalog, c, nil)
	require.NotEmpty(t, got)

	got[0].Name = "changed"
	assert.Equal(t, snapshot, catalog)
}

func TestDefaultCriteria(t *testing.T) {
	c := DefaultCriteria(testCatalog())

	require.True(t, c.MaxPrice.Valid)
	assert.True(t, decimal.NewFromInt(18).Equal(c.MaxPrice.Decimal))
	assert.Zero(t, c.MinRating)
	assert.True(t, c.Dietary.IsEmpty())
	assert.Equal(t, float64(DefaultMaxDistanceKm), c.MaxDistanceKm)

	c = DefaultCriteria([]Product{{ID: 1, Price: decimal.RequireFromString("7.25")}})
	assert.True(t, decimal.NewFromInt(8).Equal(c.MaxPrice.Decimal), "ceiling rounds up")

	// Defaults keep the whole catalog when no observer is known.
	assert.Equal(t, testCatalog(), Filter(testCatalog(), DefaultCriteria(testCatalog()), nil))
}

func TestCriteria_Merge(t *testing.T) {
	base := DefaultCriteria(testCatalog())

	vegan := dietary.Of(dietary.Vegan)
	rating := 3
	got := base.Merge(CriteriaPatch{Dietary: &vegan, MinRating: &rating})

	assert.Equal(t, vegan, got.Dietary)
	assert.Equal(t, 3, got.MinRating)
	assert.Equal(t, base.MaxPrice, got.MaxPrice)
	assert.Equal(t, base.MaxDistanceKm, got.MaxDistanceKm)
	assert.True(t, base.Dietary.IsEmpty(), "receiver is unchanged")

	unlimited := math.Inf(1)
	noCeiling := decimal.NullDecimal{}
	got = got.Merge(CriteriaPatch{MaxDistanceKm: &unlimited, MaxPrice: &noCeiling})
	assert.True(t, math.IsInf(got.MaxDistanceKm, 1))
	assert.False(t, got.MaxPrice.Valid)

	assert.Equal(t, base, base.Merge(CriteriaPatch{}))
}

func TestProduct_Validate(t *testing.T) {
	valid := testCatalog()[0]
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Product)
	}{
		{name: "zero id", mutate: func(p *Product) { p.ID = 0 }},
		{name: "empty name", mutate: func(p *Product) { p.Name = "" }},
		{name: "negative price", mutate: func(p *Product) { p.Price = decimal.NewFromInt(-1) }},
		{name: "rating too high", mutate: func(p *Product) { p.SellerRating = 6 }},
		{name: "bad location", mutate: func(p *Product) { p.Location.Latitude = 120 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestMaxIDAndFind(t *testing.T) {
	catalog := testCatalog()
	assert.Equal(t, int64(9), MaxID(catalog))
	assert.Zero(t, MaxID(nil))

	p, ok := Find(catalog, 4)
	require.True(t, ok)
	assert.Equal(t, "Cookies", p.Name)

	_, ok = Find(catalog, 100)
	assert.False(t, ok)
}
