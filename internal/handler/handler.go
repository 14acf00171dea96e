// Package handler implements the FoodHub JSON API over chi.
package handler

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/assistant"
	"github.com/xenking/foodhub/internal/domain/cart"
	"github.com/xenking/foodhub/internal/domain/order"
	"github.com/xenking/foodhub/internal/domain/product"
	"github.com/xenking/foodhub/internal/domain/session"
)

const defaultMaxBodySize = 1 << 20

// SessionStore keeps session snapshots. Update must apply fn atomically and
// keep the stored snapshot when fn fails.
type SessionStore interface {
	Create(ctx context.Context, catalog []product.Product) (session.State, error)
	Get(ctx context.Context, id string) (session.State, error)
	Update(ctx context.Context, id string, fn func(session.State) (session.State, error)) (session.State, error)
	Delete(ctx context.Context, id string)
}

// OrderService places and looks up orders.
type OrderService interface {
	PlaceOrder(ctx context.Context, c cart.Cart) (*order.Order, error)
	Get(ctx context.Context, id string) (*order.Order, error)
}

// Config holds non-dependency handler settings.
type Config struct {
	// MaxBodySize bounds JSON request bodies. Defaults to 1 MiB.
	MaxBodySize int64
	// AssistantMiddleware wraps the routes calling the content provider,
	// typically a stricter rate limit keyed by AssistantRateKey.
	AssistantMiddleware []func(http.Handler) http.Handler
}

// Handler serves the /api routes.
type Handler struct {
	catalog   product.Repository
	sessions  SessionStore
	orders    OrderService
	assistant assistant.ContentProvider
	validate  *validator.Validate
	cfg       Config
}

// NewHandler constructs a Handler.
func NewHandler(
	cfg Config,
	catalog product.Repository,
	sessions SessionStore,
	orders OrderService,
	provider assistant.ContentProvider,
) *Handler {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	if provider == nil {
		provider = assistant.Disabled{}
	}
	return &Handler{
		catalog:   catalog,
		sessions:  sessions,
		orders:    orders,
		assistant: provider,
		validate:  newValidator(),
		cfg:       cfg,
	}
}

// Register mounts the API under /api on r.
func (h *Handler) Register(r chi.Router) {
	assistantMW := append([]func(http.Handler) http.Handler{h.scopeSession}, h.cfg.AssistantMiddleware...)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/orders/{oid}", h.getOrder)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Route("/{sid}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.deleteSession)

				r.Get("/products", h.sessionProducts)
				r.Post("/products", h.addListing)

				r.Patch("/filters", h.updateFilters)
				r.Delete("/filters", h.resetFilters)

				r.Put("/location", h.setLocation)
				r.Delete("/location", h.clearLocation)

				r.Post("/view", h.toggleView)

				r.Get("/cart", h.getCart)
				r.Post("/cart", h.addToCart)
				r.Delete("/cart", h.clearCart)
				r.Delete("/cart/{id}", h.removeFromCart)

				r.Post("/checkout", h.checkout)
				r.With(assistantMW...).Post("/recommendations", h.recommend)
			})
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Use(assistantMW...)
			r.Post("/chat", h.chat)
			r.Post("/identify", h.identify)
		})
	})
}

// newValidator returns a validator reporting json field names and treating
// decimals as numbers, so tags like gte=0 apply to prices.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		switch d := f.Interface().(type) {
		case decimal.Decimal:
			return d.InexactFloat64()
		case decimal.NullDecimal:
			if !d.Valid {
				return 0.0
			}
			return d.Decimal.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})
	return v
}
