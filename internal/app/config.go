package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/foodhub/internal/domain/geo"
	"github.com/xenking/foodhub/internal/domain/session"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (FOODHUB_ prefix), flags, or YAML config files.
type Config struct {
	Addr               string `default:"0.0.0.0:8080" usage:"API server listen address"`
	CatalogFile        string `default:"" usage:"Catalog JSON file (.json or .json.gz); empty serves the embedded seed" flag:"catalog-file"`
	Gemini             GeminiConfig
	Session            SessionConfig
	SellerLocation     LocationConfig
	RateLimit          RateLimitConfig
	AssistantRateLimit AssistantRateLimitConfig
	CORS               CORSConfig
	Graceful           GracefulConfig
}

// GeminiConfig configures the AI content provider. Without an API key the
// assistant endpoints answer with fallbacks.
type GeminiConfig struct {
	APIKey           string        `usage:"Gemini API key (FOODHUB_GEMINI_API_KEY or GEMINI_API_KEY)" flag:"gemini-api-key"`
	Model            string        `default:"gemini-2.5-flash" usage:"Gemini model name"`
	Concurrency      int           `default:"3" usage:"Max concurrent Gemini requests"`
	MinInterval      time.Duration `default:"200ms" usage:"Minimum delay between Gemini requests" flag:"gemini-min-interval"`
	Timeout          time.Duration `default:"30s" usage:"Per-request Gemini timeout"`
	MaxConversations int           `default:"1000" usage:"Chat histories kept in memory" flag:"gemini-max-conversations"`
}

// SessionConfig controls in-memory buyer sessions.
type SessionConfig struct {
	TTL             time.Duration `default:"2h" usage:"Idle session lifetime"`
	Limit           int           `default:"10000" usage:"Max live sessions (0 = unlimited)"`
	CleanupInterval time.Duration `default:"1m" usage:"Expired session sweep interval" flag:"session-cleanup-interval"`
}

// LocationConfig is where seller listings without a location are placed.
type LocationConfig struct {
	Latitude  float64 `default:"34.0522" usage:"Default seller latitude"`
	Longitude float64 `default:"-118.2437" usage:"Default seller longitude"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// AssistantRateLimitConfig is the stricter limit for routes calling Gemini.
type AssistantRateLimitConfig struct {
	Max    int           `default:"10" usage:"Max assistant requests per window" flag:"assistant-rate-limit-max"`
	Window time.Duration `default:"1m" usage:"Assistant rate limit window duration" flag:"assistant-rate-limit-window"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from a .env file, environment variables,
// YAML config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FOODHUB",
		Files:     []string{"config.yaml", "/etc/foodhub/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like PORT to the application's
// FOODHUB_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Gemini.APIKey == "" {
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.Gemini.APIKey = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if err := c.SellerLocation.coordinate().Validate(); err != nil {
		return errors.Wrap(err, "seller location")
	}
	if c.Session.TTL < 0 {
		return errors.New("session TTL must not be negative")
	}
	if c.Session.CleanupInterval <= 0 {
		return errors.New("session cleanup interval must be positive")
	}
	return nil
}

func (l LocationConfig) coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

func (c *Config) sessionOptions() []session.Option {
	return []session.Option{session.WithSellerLocation(c.SellerLocation.coordinate())}
}
