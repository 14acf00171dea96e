package gemini

import (
	"bytes"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/assistant"
)

var listingSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":        {Type: genai.TypeString, Description: "A creative name for the food item."},
		"description": {Type: genai.TypeString, Description: "A short, enticing description."},
	},
	Required: []string{"name", "description"},
}

var suggestionsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"price":       {Type: genai.TypeNumber},
			"imageSeed":   {Type: genai.TypeString, Description: "A single, simple word to use as a seed for an image URL."},
		},
		Required: []string{"name", "description", "price", "imageSeed"},
	},
}

// trimPayload strips whitespace and an optional markdown code fence.
func trimPayload(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, []byte("```")) {
		return data
	}
	data = bytes.TrimPrefix(data, []byte("```"))
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[i+1:]
	}
	data = bytes.TrimSuffix(bytes.TrimSpace(data), []byte("```"))
	return bytes.TrimSpace(data)
}

func decodeListing(data []byte) (assistant.Listing, error) {
	var l assistant.Listing
	d := jx.DecodeBytes(trimPayload(data))
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			l.Name, err = d.Str()
		case "description":
			l.Description, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return assistant.Listing{}, errors.Wrap(err, "decode listing")
	}

	l.Name = strings.TrimSpace(l.Name)
	l.Description = strings.TrimSpace(l.Description)
	if l.Name == "" || l.Description == "" {
		return assistant.Listing{}, errors.New("listing missing name or description")
	}
	return l, nil
}

func decodeSuggestions(data []byte) ([]assistant.Suggestion, error) {
	var out []assistant.Suggestion
	d := jx.DecodeBytes(trimPayload(data))
	if err := d.Arr(func(d *jx.Decoder) error {
		s, err := decodeSuggestion(d)
		if err != nil {
			return err
		}
		if s.Name != "" {
			out = append(out, s)
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode suggestions")
	}
	if len(out) == 0 {
		return nil, errors.New("no suggestions")
	}
	return out, nil
}

func decodeSuggestion(d *jx.Decoder) (assistant.Suggestion, error) {
	var s assistant.Suggestion
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			s.Name, err = d.Str()
		case "description":
			s.Description, err = d.Str()
		case "imageSeed":
			s.ImageSeed, err = d.Str()
		case "price":
			s.Price, err = decodePrice(d)
		default:
			err = d.Skip()
		}
		return err
	})
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	return s, err
}

// decodePrice accepts a JSON number or a numeric string.
func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		p, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(v), "$"))
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "price %q", v)
		}
		return p, nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		p, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "price %s", n)
		}
		return p, nil
	default:
		return decimal.Zero, d.Skip()
	}
}
