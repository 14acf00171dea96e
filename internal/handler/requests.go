package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/dietary"
	"github.com/xenking/foodhub/internal/domain/geo"
	"github.com/xenking/foodhub/internal/domain/product"
	"github.com/xenking/foodhub/internal/domain/session"
	"github.com/xenking/foodhub/internal/storage/catalogfile"
)

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

func (l locationRequest) coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

type listingRequest struct {
	Name        string           `json:"name" validate:"required,max=120"`
	Description string           `json:"description" validate:"required,max=2000"`
	Price       decimal.Decimal  `json:"price" validate:"gte=0"`
	ImageURL    string           `json:"imageUrl" validate:"omitempty,url"`
	Dietary     []string         `json:"dietaryTags" validate:"dive,oneof=vegetarian vegan gluten-free nut-free"`
	Location    *locationRequest `json:"location"`
}

func (req listingRequest) draft() (session.Draft, error) {
	tags, err := dietary.ParseSet(req.Dietary)
	if err != nil {
		return session.Draft{}, err
	}
	d := session.Draft{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Dietary:     tags,
	}
	if req.Location != nil {
		c := req.Location.coordinate()
		d.Location = &c
	}
	return d, nil
}

type filtersRequest struct {
	Dietary       []string             `json:"dietary" validate:"omitempty,dive,oneof=vegetarian vegan gluten-free nut-free"`
	MaxPrice      *decimal.NullDecimal `json:"maxPrice" validate:"omitempty,gte=0"`
	MinRating     *int                 `json:"minRating" validate:"omitempty,gte=0,lte=5"`
	MaxDistanceKm *float64             `json:"maxDistanceKm" validate:"omitempty,gte=0"`
}

func (req filtersRequest) patch() (product.CriteriaPatch, error) {
	p := product.CriteriaPatch{
		MaxPrice:      req.MaxPrice,
		MinRating:     req.MinRating,
		MaxDistanceKm: req.MaxDistanceKm,
	}
	if req.Dietary != nil {
		tags, err := dietary.ParseSet(req.Dietary)
		if err != nil {
			return product.CriteriaPatch{}, err
		}
		p.Dietary = &tags
	}
	return p, nil
}

type productRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

type chatRequest struct {
	ConversationID string `json:"conversationId" validate:"omitempty,max=128"`
	Message        string `json:"message" validate:"required,max=4000"`
}

func (h *Handler) decodeListing(w http.ResponseWriter, r *http.Request) (listingRequest, error) {
	var req listingRequest
	var hasPrice bool
	err := h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			req.Name, err = d.Str()
		case "description":
			req.Description, err = d.Str()
		case "price":
			req.Price, err = catalogfile.DecodePrice(d)
			hasPrice = true
		case "imageUrl":
			req.ImageURL, err = d.Str()
		case "dietaryTags":
			req.Dietary, err = decodeStrings(d)
		case "location":
			req.Location, err = decodeLocation(d)
		default:
			return d.Skip()
		}
		return fieldErr(key, err)
	})
	if err != nil {
		return req, err
	}
	if !hasPrice {
		return req, badRequestf("price is required")
	}
	return req, h.validate.Struct(req)
}

func (h *Handler) decodeFilters(w http.ResponseWriter, r *http.Request) (filtersRequest, error) {
	var req filtersRequest
	err := h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "dietary":
			if d.Next() == jx.Null {
				req.Dietary = []string{}
				return d.Null()
			}
			var tags []string
			tags, err = decodeStrings(d)
			if tags == nil {
				tags = []string{}
			}
			req.Dietary = tags
		case "maxPrice":
			var p decimal.NullDecimal
			p, err = decodeNullablePrice(d)
			req.MaxPrice = &p
		case "minRating":
			var v int
			v, err = d.Int()
			req.MinRating = &v
		case "maxDistanceKm":
			if d.Next() == jx.Null {
				inf := product.AnyCriteria().MaxDistanceKm
				req.MaxDistanceKm = &inf
				return d.Null()
			}
			var v float64
			v, err = d.Float64()
			req.MaxDistanceKm = &v
		default:
			return d.Skip()
		}
		return fieldErr(key, err)
	})
	if err != nil {
		return req, err
	}
	return req, h.validate.Struct(req)
}

func (h *Handler) decodeProductRequest(w http.ResponseWriter, r *http.Request) (productRequest, error) {
	var req productRequest
	err := h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "productId" {
			return d.Skip()
		}
		var err error
		req.ProductID, err = d.Int64()
		return fieldErr(key, err)
	})
	if err != nil {
		return req, err
	}
	return req, h.validate.Struct(req)
}

func (h *Handler) decodeLocationRequest(w http.ResponseWriter, r *http.Request) (locationRequest, error) {
	var req locationRequest
	var hasLat, hasLon bool
	err := h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "latitude", "lat":
			req.Latitude, err = d.Float64()
			hasLat = true
		case "longitude", "lng", "lon":
			req.Longitude, err = d.Float64()
			hasLon = true
		default:
			return d.Skip()
		}
		return fieldErr(key, err)
	})
	if err != nil {
		return req, err
	}
	if !hasLat || !hasLon {
		return req, badRequestf("latitude and longitude are required")
	}
	return req, h.validate.Struct(req)
}

func (h *Handler) decodeChat(w http.ResponseWriter, r *http.Request) (chatRequest, error) {
	var req chatRequest
	err := h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "conversationId":
			req.ConversationID, err = d.Str()
		case "message":
			req.Message, err = d.Str()
		default:
			return d.Skip()
		}
		return fieldErr(key, err)
	})
	if err != nil {
		return req, err
	}
	return req, h.validate.Struct(req)
}

// productQuery is the stateless filter of GET /api/products.
type productQuery struct {
	Dietary     dietary.Set
	MaxPrice    decimal.NullDecimal `json:"maxPrice" validate:"gte=0"`
	MinRating   int                 `json:"minRating" validate:"gte=0,lte=5"`
	MaxDistance *float64            `json:"maxDistance" validate:"omitempty,gte=0"`
	Location    *locationRequest    `json:"location"`
}

func (q productQuery) criteria() (product.Criteria, *geo.Coordinate) {
	c := product.AnyCriteria()
	c.Dietary = q.Dietary
	c.MaxPrice = q.MaxPrice
	c.MinRating = q.MinRating
	if q.MaxDistance != nil {
		c.MaxDistanceKm = *q.MaxDistance
	}
	if q.Location == nil {
		return c, nil
	}
	observer := q.Location.coordinate()
	return c, &observer
}

func (h *Handler) parseProductQuery(r *http.Request) (productQuery, error) {
	var q productQuery
	v := r.URL.Query()

	if s := v.Get("dietary"); s != "" {
		tags, err := dietary.ParseSet(splitList(s))
		if err != nil {
			return q, err
		}
		q.Dietary = tags
	}
	if s := v.Get("maxPrice"); s != "" {
		p, err := decimal.NewFromString(s)
		if err != nil {
			return q, badRequestf("maxPrice: %q is not a number", s)
		}
		q.MaxPrice = decimal.NewNullDecimal(p)
	}
	if s := v.Get("minRating"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, badRequestf("minRating: %q is not an integer", s)
		}
		q.MinRating = n
	}
	if s := v.Get("maxDistance"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, badRequestf("maxDistance: %q is not a number", s)
		}
		q.MaxDistance = &f
	}

	lat, lon := v.Get("lat"), v.Get("lon")
	if lon == "" {
		lon = v.Get("lng")
	}
	switch {
	case lat == "" && lon == "":
	case lat == "" || lon == "":
		return q, badRequestf("lat and lon must be given together")
	default:
		la, err1 := strconv.ParseFloat(lat, 64)
		lo, err2 := strconv.ParseFloat(lon, 64)
		if err1 != nil || err2 != nil {
			return q, badRequestf("lat/lon must be numbers")
		}
		q.Location = &locationRequest{Latitude: la, Longitude: lo}
	}
	return q, h.validate.Struct(q)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// fieldErr prefixes a decode error with the offending field.
func fieldErr(key string, err error) error {
	if err != nil {
		return errors.Wrap(err, key)
	}
	return nil
}

func intParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequestf("%s: %q is not a valid id", name, raw)
	}
	return id, nil
}
