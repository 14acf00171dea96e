package catalogfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub/catalog"
	"github.com/xenking/foodhub/internal/domain/dietary"
	"github.com/xenking/foodhub/internal/domain/geo"
	"github.com/xenking/foodhub/internal/domain/product"
)

const twoProducts = `[
	{"id": 10, "name": "Pho", "description": "Beef broth.", "price": 13.5, "imageUrl": "u",
	 "dietaryTags": ["gluten-free"], "sellerRating": 4, "location": {"latitude": 34.05, "longitude": -118.24}},
	{"id": 11, "name": "Banh Mi", "description": "Crunchy.", "price": "9.00", "imageUrl": "u",
	 "dietaryTags": [], "sellerRating": 0, "location": {"lat": 34.06, "lng": -118.25}, "featured": true}
]`

func TestParse_Seed(t *testing.T) {
	products, err := Parse(catalog.Seed)
	require.NoError(t, err)
	require.Len(t, products, 8)

	bread := products[0]
	assert.Equal(t, int64(1), bread.ID)
	assert.Equal(t, "Artisanal Sourdough Bread", bread.Name)
	assert.True(t, decimal.RequireFromString("7.50").Equal(bread.Price))
	assert.Equal(t, dietary.Of(dietary.Vegan, dietary.Vegetarian, dietary.NutFree), bread.Dietary)
	assert.Equal(t, 5, bread.SellerRating)
	assert.Equal(t, geo.Coordinate{Latitude: 34.0522, Longitude: -118.2437}, bread.Location)

	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID, "seed order is preserved")
	}
	assert.True(t, decimal.NewFromInt(18).Equal(product.DefaultCriteria(products).MaxPrice.Decimal))
}

func TestDecode(t *testing.T) {
	products, err := Decode(context.Background(), strings.NewReader(twoProducts))
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.True(t, decimal.RequireFromString("13.5").Equal(products[0].Price))
	assert.True(t, products[0].Dietary.Has(dietary.GlutenFree))
	assert.True(t, decimal.RequireFromString("9").Equal(products[1].Price))
	assert.True(t, products[1].Dietary.IsEmpty())
	assert.Equal(t, geo.Coordinate{Latitude: 34.06, Longitude: -118.25}, products[1].Location)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		target error
	}{
		{name: "unknown tag", in: `[{"id":1,"name":"x","price":1,"dietaryTags":["paleo"]}]`, target: dietary.ErrUnknownTag},
		{name: "negative price", in: `[{"id":1,"name":"x","price":-1}]`, target: product.ErrInvalid},
		{name: "rating out of range", in: `[{"id":1,"name":"x","price":1,"sellerRating":7}]`, target: product.ErrInvalid},
		{name: "missing id", in: `[{"name":"x","price":1}]`, target: product.ErrInvalid},
		{name: "bad coordinate", in: `[{"id":1,"name":"x","price":1,"location":{"latitude":123,"longitude":0}}]`, target: geo.ErrInvalidCoordinate},
		{name: "duplicate id", in: `[{"id":1,"name":"x","price":1},{"id":1,"name":"y","price":2}]`, target: ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(context.Background(), strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}

	_, err := Decode(context.Background(), strings.NewReader(`{"id":1}`))
	require.Error(t, err, "top level must be an array")
}

func TestStream_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var seen []int64
	err := Stream(ctx, strings.NewReader(twoProducts), func(p product.Product) error {
		seen = append(seen, p.ID)
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{10}, seen)
}

func TestLoad_PlainAndGzip(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(plain, []byte(twoProducts), 0o600))

	gzPath := filepath.Join(dir, "catalog.json.gz")
	f, err := os.Create(gzPath)
	require.NoError(t, err)
	zw := pgzip.NewWriter(f)
	_, err = zw.Write([]byte(twoProducts))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	fromPlain, err := Load(context.Background(), plain)
	require.NoError(t, err)
	fromGzip, err := Load(context.Background(), gzPath)
	require.NoError(t, err)
	assert.Equal(t, fromPlain, fromGzip)
	assert.Len(t, fromGzip, 2)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestEncodeProduct(t *testing.T) {
	products, err := Parse(catalog.Seed)
	require.NoError(t, err)

	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			EncodeProduct(e, p)
		}
	})
	assert.Contains(t, e.String(), `"price":7.50`)
	assert.Contains(t, e.String(), `"dietaryTags":["vegetarian","vegan","nut-free"]`)

	again, err := Parse(e.Bytes())
	require.NoError(t, err)
	assert.Equal(t, len(products), len(again))
	for i := range products {
		assert.Equal(t, products[i].ID, again[i].ID)
		assert.True(t, products[i].Price.Equal(again[i].Price))
		assert.Equal(t, products[i].Dietary, again[i].Dietary)
		assert.Equal(t, products[i].Location, again[i].Location)
	}
}
