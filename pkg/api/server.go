// Package api exposes the budget calculator over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/holyrood-analytics/scotbudget/pkg/budget"
)

// Options configures the server surface.
type Options struct {
	// AllowedOrigins is the CORS allow list. Empty allows every origin.
	AllowedOrigins []string

	// EnableMetrics exposes Prometheus metrics on /metrics and records
	// per-request series.
	EnableMetrics bool

	// EnableTracing wraps the router in an OpenTelemetry server span per
	// request.
	EnableTracing bool
}

// Server routes dashboard requests to the budget calculator. The calculator
// is swapped atomically when policy overrides change, so in-flight requests
// keep the snapshot they started with.
type Server struct {
	logger  *slog.Logger
	metrics *Metrics
	opts    Options
	calc    atomic.Pointer[budget.Calculator]
}

// NewServer creates a server around calc. A nil logger falls back to
// slog.Default().
func NewServer(calc *budget.Calculator, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		logger: logger,
		opts:   opts,
	}
	if opts.EnableMetrics {
		s.metrics = NewMetrics()
	}
	s.calc.Store(calc)
	return s
}

// SetCalculator atomically replaces the calculator behind the API. The
// overrides watcher calls this when a new snapshot lands.
func (s *Server) SetCalculator(calc *budget.Calculator) {
	if calc == nil {
		return
	}
	s.calc.Store(calc)
	if s.metrics != nil {
		s.metrics.RecordCalculatorSwap()
	}
}

// Metrics returns the Prometheus metrics instance, nil when disabled.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) calculator() *budget.Calculator {
	return s.calc.Load()
}

// Router builds the HTTP handler with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(Recoverer(s.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
	if s.metrics != nil {
		r.Use(s.metrics.MetricsMiddleware)
	}

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/calculate", s.handleCalculate)
	r.Post("/calculate-variation", s.handleCalculateVariation)
	r.Get("/policies", s.handlePolicies)
	r.Get("/presets", s.handlePresets)
	r.Get("/mansion-tax", s.handleMansionTax)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	var h http.Handler = r
	if s.opts.EnableTracing {
		h = otelhttp.NewHandler(h, "scotbudget.api")
	}
	return h
}
