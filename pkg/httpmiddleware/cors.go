package httpmiddleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

var defaultCORSMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. Empty or "*" allows any origin.
	AllowOrigins []string
	// AllowMethods defaults to GET, POST, PATCH, DELETE, OPTIONS.
	AllowMethods []string
	// AllowHeaders lists allowed request headers. When empty any requested
	// header is allowed.
	AllowHeaders []string
	// ExposeHeaders lists response headers readable by the browser.
	ExposeHeaders []string
	// AllowCredentials disables the "*" origin; an allowed request origin is
	// echoed instead.
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds. Zero or negative
	// omits the header.
	MaxAge int
}

func (cfg CORSConfig) options() cors.Options {
	opts := cors.Options{
		AllowedOrigins:   cfg.AllowOrigins,
		AllowedMethods:   cfg.AllowMethods,
		AllowedHeaders:   cfg.AllowHeaders,
		ExposedHeaders:   cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           max(cfg.MaxAge, 0),
	}
	if len(opts.AllowedMethods) == 0 {
		opts.AllowedMethods = defaultCORSMethods
	}
	if len(opts.AllowedHeaders) == 0 {
		opts.AllowedHeaders = []string{"*"}
	}

	anyOrigin := len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*")
	if anyOrigin && cfg.AllowCredentials {
		// "*" is not valid with credentials, echo the origin.
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	}
	return opts
}

// CORS handles Cross-Origin Resource Sharing. Preflight requests are
// answered directly and never reach next.
func CORS(cfg CORSConfig) Middleware {
	return cors.Handler(cfg.options())
}
