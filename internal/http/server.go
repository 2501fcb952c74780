// Package http exposes the analytics engine and receipt ingest as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"receipts/internal/cache"
	"receipts/internal/log"
	"receipts/internal/middleware/ratelimit"
	"receipts/internal/middleware/security"
	"receipts/internal/middleware/trace"
	"receipts/internal/services"
)

// Pinger reports whether the data backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server's dependencies. Ready, CacheStats and Location
// are optional.
type Options struct {
	Addr               string
	Analytics          *services.AnalyticsService
	Receipts           *services.ReceiptService
	Ready              Pinger
	CacheStats         func() cache.Stats
	Location           *time.Location
	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose forwarding headers are believed.
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server
	analytics  *services.AnalyticsService
	receipts   *services.ReceiptService
	ready      Pinger
	cacheStats func() cache.Stats
	loc        *time.Location
	logger     *log.Logger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	trace       *trace.Middleware

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}
	s := &Server{
		analytics:   opts.Analytics,
		receipts:    opts.Receipts,
		ready:       opts.Ready,
		cacheStats:  opts.CacheStats,
		loc:         loc,
		logger:      logger.WithComponent(log.ComponentHTTP),
		detector:    detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		trace:       trace.NewMiddleware(detector.ExtractClientIP, logger),
		startedAt:   time.Now(),
	}

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(s.trace.Middleware)
	router.Use(security.Headers(security.DefaultHeadersConfig()))
	router.Use(detector.Middleware(logger, false))

	router.Get("/healthz", s.handleHealth)
	router.Get("/readyz", s.handleReady)
	router.Get("/metrics", s.handleMetrics)

	router.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/insights", s.handleInsights)
		r.Get("/drilldown/categories", s.handleCategoryDrilldown)
		r.Get("/drilldown/merchants", s.handleMerchantDrilldown)

		r.With(s.rateLimiter.Middleware(detector.ExtractClientIP, logger, nil)).
			Post("/receipts", s.handleCreateReceipt)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w, r)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed").Write(w, r)
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter janitor and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
