package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kdduha/code-explainer/backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type RouterConfig struct {
	AllowedOrigins []string
	// ThrottleLimit and Timeout are disabled when zero.
	ThrottleLimit int
	Timeout       time.Duration
}

func NewRouter(logger *log.Logger, e *ExplainHandler, cfg RouterConfig) http.Handler {
	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		metrics.Middleware,
		Recoverer(logger),
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
	}
	if cfg.ThrottleLimit > 0 {
		mws = append(mws, middleware.Throttle(cfg.ThrottleLimit))
	}
	if cfg.Timeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Timeout))
	}

	r := chi.NewRouter()
	r.Use(mws...)

	r.Get("/", e.Health)
	r.Post("/explain", e.Explain)
	r.Post("/explain/stream", e.ExplainStream)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	return r
}
