package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/foodhub/catalog"
	"github.com/xenking/foodhub/internal/domain/assistant"
	"github.com/xenking/foodhub/internal/domain/order"
	"github.com/xenking/foodhub/internal/domain/product"
	"github.com/xenking/foodhub/internal/gemini"
	"github.com/xenking/foodhub/internal/handler"
	"github.com/xenking/foodhub/internal/storage/catalogfile"
	"github.com/xenking/foodhub/internal/storage/memory"
	"github.com/xenking/foodhub/pkg/health"
	"github.com/xenking/foodhub/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	products, err := loadCatalog(ctx, cfg.CatalogFile)
	if err != nil {
		return err
	}
	lg.Info("Catalog loaded",
		zap.Int("products", len(products)),
		zap.String("source", catalogSource(cfg.CatalogFile)),
	)

	// Repositories.
	catalogRepo := memory.NewCatalog(products)
	sessions := memory.NewSessionStore(memory.SessionConfig{
		TTL:     cfg.Session.TTL,
		Limit:   cfg.Session.Limit,
		Options: cfg.sessionOptions(),
	})
	orderService := order.NewService(memory.NewOrderRepository())

	provider, closeProvider, err := newProvider(ctx, lg, m, cfg.Gemini)
	if err != nil {
		return err
	}
	defer closeProvider()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", time.Second, health.NonEmptyCheck("catalog", catalogRepo.Len))
	healthSvc.AddReadinessCheck("sessions", time.Second,
		health.CapacityCheck("session store", sessions.Len, cfg.Session.Limit),
		health.WithFailureThreshold(1),
	)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	h := handler.NewHandler(
		handler.Config{
			AssistantMiddleware: []func(http.Handler) http.Handler{
				httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
					Max:     cfg.AssistantRateLimit.Max,
					Window:  cfg.AssistantRateLimit.Window,
					KeyFunc: handler.AssistantRateKey,
				}),
			},
		},
		catalogRepo,
		sessions,
		orderService,
		provider,
	)

	// Router: health endpoints + API routes on one server.
	router := chi.NewRouter()
	healthSvc.Mount(router)
	h.Register(router)
	routeFinder := httpmiddleware.MakeRouteFinder(router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second, // image uploads
		WriteTimeout:      max(10*time.Second, cfg.Gemini.Timeout+5*time.Second),
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader, handler.SessionHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Skip:   isProbe,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("foodhub-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.RunCleanup(gCtx, lg, cfg.Session.CleanupInterval)
		return nil
	})
	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}

// loadCatalog reads the catalog file, or the embedded seed when path is empty.
func loadCatalog(ctx context.Context, path string) ([]product.Product, error) {
	if path == "" {
		products, err := catalogfile.Parse(catalog.Seed)
		if err != nil {
			return nil, errors.Wrap(err, "parse embedded catalog")
		}
		return products, nil
	}
	products, err := catalogfile.Load(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "load catalog %q", path)
	}
	if len(products) == 0 {
		return nil, errors.Errorf("catalog %q is empty", path)
	}
	return products, nil
}

func catalogSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// newProvider returns the Gemini provider, or assistant.Disabled when no API
// key is configured.
func newProvider(
	ctx context.Context,
	lg *zap.Logger,
	m *app.Telemetry,
	cfg GeminiConfig,
) (assistant.ContentProvider, func(), error) {
	if cfg.APIKey == "" {
		lg.Warn("Gemini API key not set, assistant features disabled")
		return assistant.Disabled{}, func() {}, nil
	}
	client, err := gemini.New(ctx, gemini.Config{
		APIKey:           cfg.APIKey,
		Model:            cfg.Model,
		Concurrency:      cfg.Concurrency,
		MinInterval:      cfg.MinInterval,
		Timeout:          cfg.Timeout,
		MaxConversations: cfg.MaxConversations,
	},
		gemini.WithLogger(lg.Named("gemini")),
		gemini.WithTracerProvider(m.TracerProvider()),
		gemini.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create gemini client")
	}
	lg.Info("Gemini assistant enabled", zap.String("model", cfg.Model))
	return client, func() {
		if err := client.Close(); err != nil {
			lg.Warn("Close gemini client", zap.Error(err))
		}
	}, nil
}

func isProbe(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/livez") || strings.HasPrefix(r.URL.Path, "/readyz")
}
