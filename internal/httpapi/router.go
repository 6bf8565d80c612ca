// Package httpapi exposes the payment network as a JSON HTTP API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/api"
)

// Options configures the router.
type Options struct {
	// CORSOrigins lists allowed origins. Empty disables CORS handling.
	CORSOrigins []string

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// RequestTimeout bounds every request. Zero means 60s.
	RequestTimeout time.Duration

	Logger *zap.Logger
}

// NewRouter builds the HTTP routes for network.
func NewRouter(network api.Network, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	h := NewHandler(network, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/authorizations", h.AuthorizePurchase)
		r.Post("/settlements", h.SettlePurchase)
		r.Post("/settlements/{settlementId}/reversal", h.ReverseSettlement)
		r.Post("/network-transactions", h.ProcessNetworkTransaction)
		r.Get("/network-transactions/{paymentId}", h.GetNetworkTransaction)
		r.Get("/accounts/{accountId}/ledger", h.ListAccountLedger)
	})

	return r
}

func loggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
