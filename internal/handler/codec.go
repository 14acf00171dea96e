package handler

import (
	"io"
	"math"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/foodhub/internal/domain/cart"
	"github.com/xenking/foodhub/internal/domain/geo"
	"github.com/xenking/foodhub/internal/domain/order"
	"github.com/xenking/foodhub/internal/domain/product"
	"github.com/xenking/foodhub/internal/domain/session"
	"github.com/xenking/foodhub/internal/storage/catalogfile"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(r.Context()).Debug("Write response", zap.Error(err))
	}
}

// decodeObject reads a JSON object body, calling fn for every field.
func (h *Handler) decodeObject(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxBodySize)
	data, err := io.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		return badRequest(errors.Wrap(err, "decode body"))
	}
	return nil
}

func encodeProduct(e *jx.Encoder, p product.Product, observer *geo.Coordinate) {
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("id")
		e.Int64(p.ID)
		e.FieldStart("name")
		e.Str(p.Name)
		e.FieldStart("description")
		e.Str(p.Description)
		e.FieldStart("price")
		catalogfile.EncodePrice(e, p.Price)
		e.FieldStart("imageUrl")
		e.Str(p.ImageURL)
		e.FieldStart("dietaryTags")
		catalogfile.EncodeTags(e, p.Dietary)
		e.FieldStart("sellerRating")
		e.Int(p.SellerRating)
		e.FieldStart("location")
		catalogfile.EncodeCoordinate(e, p.Location)
		if observer != nil {
			e.FieldStart("distanceKm")
			e.Float64(math.Round(geo.DistanceKm(*observer, p.Location)*100) / 100)
		}
	})
}

func encodeProducts(e *jx.Encoder, products []product.Product, observer *geo.Coordinate) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			encodeProduct(e, p, observer)
		}
	})
}

func encodeCriteria(e *jx.Encoder, c product.Criteria) {
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("dietary")
		catalogfile.EncodeTags(e, c.Dietary)
		e.FieldStart("maxPrice")
		if c.MaxPrice.Valid {
			catalogfile.EncodePrice(e, c.MaxPrice.Decimal)
		} else {
			e.Null()
		}
		e.FieldStart("minRating")
		e.Int(c.MinRating)
		e.FieldStart("maxDistanceKm")
		if math.IsInf(c.MaxDistanceKm, 1) {
			e.Null()
		} else {
			e.Float64(c.MaxDistanceKm)
		}
	})
}

func encodeCart(e *jx.Encoder, c cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("items")
		e.Arr(func(e *jx.Encoder) {
			for _, it := range c.Items() {
				e.Obj(func(e *jx.Encoder) {
					e.FieldStart("product")
					encodeProduct(e, it.Product, nil)
					e.FieldStart("quantity")
					e.Int(it.Quantity)
					e.FieldStart("lineTotal")
					catalogfile.EncodePrice(e, it.LineTotal())
				})
			}
		})
		e.FieldStart("count")
		e.Int(c.Count())
		e.FieldStart("subtotal")
		catalogfile.EncodePrice(e, c.Subtotal())
	})
}

func observerOf(st session.State) *geo.Coordinate {
	if c, ok := st.Observer(); ok {
		return &c
	}
	return nil
}

func encodeSession(e *jx.Encoder, st session.State) {
	observer := observerOf(st)
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("id")
		e.Str(st.ID())
		e.FieldStart("view")
		e.Str(string(st.View()))
		e.FieldStart("filters")
		encodeCriteria(e, st.Filters())
		e.FieldStart("location")
		if observer != nil {
			catalogfile.EncodeCoordinate(e, *observer)
		} else {
			e.Null()
		}
		e.FieldStart("cart")
		e.Obj(func(e *jx.Encoder) {
			c := st.Cart()
			e.FieldStart("count")
			e.Int(c.Count())
			e.FieldStart("subtotal")
			catalogfile.EncodePrice(e, c.Subtotal())
		})
		e.FieldStart("recommendations")
		encodeProducts(e, st.Recommendations(), observer)
		e.FieldStart("createdAt")
		e.Str(st.CreatedAt().UTC().Format(time.RFC3339))
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("id")
		e.Str(o.ID)
		e.FieldStart("items")
		e.Arr(func(e *jx.Encoder) {
			for _, l := range o.Lines {
				e.Obj(func(e *jx.Encoder) {
					e.FieldStart("productId")
					e.Int64(l.ProductID)
					e.FieldStart("name")
					e.Str(l.Name)
					e.FieldStart("unitPrice")
					catalogfile.EncodePrice(e, l.UnitPrice)
					e.FieldStart("quantity")
					e.Int(l.Quantity)
					e.FieldStart("total")
					catalogfile.EncodePrice(e, l.Total)
				})
			}
		})
		e.FieldStart("count")
		e.Int(o.Count())
		e.FieldStart("total")
		catalogfile.EncodePrice(e, o.Total)
		e.FieldStart("createdAt")
		e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	})
}

// decodeStrings reads a JSON array of strings.
func decodeStrings(d *jx.Decoder) ([]string, error) {
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// decodeNullablePrice reads a price or null.
func decodeNullablePrice(d *jx.Decoder) (decimal.NullDecimal, error) {
	if d.Next() == jx.Null {
		return decimal.NullDecimal{}, d.Null()
	}
	p, err := catalogfile.DecodePrice(d)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(p), nil
}

func decodeLocation(d *jx.Decoder) (*locationRequest, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var loc locationRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "latitude", "lat":
			loc.Latitude, err = d.Float64()
		case "longitude", "lng", "lon":
			loc.Longitude, err = d.Float64()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
