// Package assistant defines the generative content capability used for the
// shopping chatbot, photo based listings and similar item suggestions.
package assistant

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/geo"
	"github.com/xenking/foodhub/internal/domain/product"
)

// FallbackReply is what the chatbot says when the provider fails.
const FallbackReply = "Oops! I'm having a little trouble connecting. Please try again later."

// MaxImageSize bounds uploaded product photos.
const MaxImageSize = 10 << 20

const (
	defaultImageSeed = "food"
	imageURLFormat   = "https://picsum.photos/seed/%s/400/300"
)

var (
	// ErrUnavailable marks a failed or unconfigured provider. Callers show a
	// generic notice and keep their state unchanged.
	ErrUnavailable = errors.New("assistant unavailable")
	// ErrInvalidImage is returned for empty, oversized or non-image uploads.
	ErrInvalidImage = errors.New("invalid image")
)

// Image is an uploaded product photo.
type Image struct {
	MIMEType string
	Data     []byte
}

// Validate checks the image is non-empty, within MaxImageSize and has an
// image/* content type.
func (i Image) Validate() error {
	switch {
	case len(i.Data) == 0:
		return errors.Wrap(ErrInvalidImage, "empty")
	case len(i.Data) > MaxImageSize:
		return errors.Wrapf(ErrInvalidImage, "%d bytes exceeds limit", len(i.Data))
	case !strings.HasPrefix(i.MIMEType, "image/"):
		return errors.Wrapf(ErrInvalidImage, "content type %q", i.MIMEType)
	}
	return nil
}

// Listing is a generated name and description for a product photo.
type Listing struct {
	Name        string
	Description string
}

// Suggestion is a generated item similar to an existing product.
type Suggestion struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageSeed   string
}

// ImageURL returns the placeholder image for the suggestion.
func (s Suggestion) ImageURL() string {
	seed := strings.TrimSpace(s.ImageSeed)
	if seed == "" {
		seed = defaultImageSeed
	}
	return strings.Replace(imageURLFormat, "%s", seed, 1)
}

// Product converts the suggestion into a catalog product. Suggested items
// carry no dietary tags and no rating, and are placed at the location of the
// product they were derived from.
func (s Suggestion) Product(id int64, location geo.Coordinate) product.Product {
	price := s.Price
	if price.IsNegative() {
		price = decimal.Zero
	}
	return product.Product{
		ID:          id,
		Name:        s.Name,
		Description: s.Description,
		Price:       price.Round(2),
		ImageURL:    s.ImageURL(),
		Location:    location,
	}
}

// ContentProvider generates chat replies, listings and suggestions.
type ContentProvider interface {
	// Chat continues the conversation identified by conversationID.
	Chat(ctx context.Context, conversationID, message string) (string, error)
	// IdentifyFood names and describes the food shown in image.
	IdentifyFood(ctx context.Context, image Image) (Listing, error)
	// Recommend suggests items similar to the named product.
	Recommend(ctx context.Context, name, description string) ([]Suggestion, error)
}

// Disabled is the provider used when no AI backend is configured.
type Disabled struct{}

var _ ContentProvider = Disabled{}

func (Disabled) Chat(context.Context, string, string) (string, error) {
	return "", errors.Wrap(ErrUnavailable, "not configured")
}

func (Disabled) IdentifyFood(context.Context, Image) (Listing, error) {
	return Listing{}, errors.Wrap(ErrUnavailable, "not configured")
}

func (Disabled) Recommend(context.Context, string, string) ([]Suggestion, error) {
	return nil, errors.Wrap(ErrUnavailable, "not configured")
}
