package catalogfile

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/dietary"
	"github.com/xenking/foodhub/internal/domain/geo"
	"github.com/xenking/foodhub/internal/domain/product"
)

// EncodeProduct writes p as a JSON object in catalog file format.
func EncodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("id")
		e.Int64(p.ID)
		e.FieldStart("name")
		e.Str(p.Name)
		e.FieldStart("description")
		e.Str(p.Description)
		e.FieldStart("price")
		EncodePrice(e, p.Price)
		e.FieldStart("imageUrl")
		e.Str(p.ImageURL)
		e.FieldStart("dietaryTags")
		EncodeTags(e, p.Dietary)
		e.FieldStart("sellerRating")
		e.Int(p.SellerRating)
		e.FieldStart("location")
		EncodeCoordinate(e, p.Location)
	})
}

// EncodePrice writes a decimal as a JSON number with two fraction digits.
func EncodePrice(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

// EncodeTags writes the tag names of s as a JSON array.
func EncodeTags(e *jx.Encoder, s dietary.Set) {
	e.Arr(func(e *jx.Encoder) {
		for _, name := range s.Strings() {
			e.Str(name)
		}
	})
}

// EncodeCoordinate writes c as {"latitude":..,"longitude":..}.
func EncodeCoordinate(e *jx.Encoder, c geo.Coordinate) {
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("latitude")
		e.Float64(c.Latitude)
		e.FieldStart("longitude")
		e.Float64(c.Longitude)
	})
}

// DecodeProduct reads one product object. The result is not validated.
func DecodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			p.Price, err = DecodePrice(d)
		case "imageUrl":
			p.ImageURL, err = d.Str()
		case "dietaryTags":
			p.Dietary, err = DecodeTags(d)
		case "sellerRating":
			p.SellerRating, err = d.Int()
		case "location":
			p.Location, err = DecodeCoordinate(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return p, err
}

// DecodePrice reads a decimal from a JSON number or numeric string.
func DecodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = strings.TrimSpace(s)
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse price %q", raw)
	}
	return v, nil
}

// DecodeTags reads a JSON array of tag names. Unknown names are an error.
func DecodeTags(d *jx.Decoder) (dietary.Set, error) {
	var s dietary.Set
	err := d.Arr(func(d *jx.Decoder) error {
		name, err := d.Str()
		if err != nil {
			return err
		}
		t, err := dietary.Parse(name)
		if err != nil {
			return err
		}
		s = s.Add(t)
		return nil
	})
	return s, err
}

// DecodeCoordinate reads {"latitude":..,"longitude":..}.
func DecodeCoordinate(d *jx.Decoder) (geo.Coordinate, error) {
	var c geo.Coordinate
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "latitude", "lat":
			c.Latitude, err = d.Float64()
		case "longitude", "lon", "lng":
			c.Longitude, err = d.Float64()
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}
