package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-dist/meridian/internal/auth"
	"github.com/meridian-dist/meridian/internal/catalog/clients"
	"github.com/meridian-dist/meridian/internal/catalog/locations"
	"github.com/meridian-dist/meridian/internal/catalog/outlets"
	"github.com/meridian-dist/meridian/internal/catalog/products"
	"github.com/meridian-dist/meridian/internal/observability"
	"github.com/meridian-dist/meridian/internal/orders"
	"github.com/meridian-dist/meridian/internal/shared"
	"github.com/meridian-dist/meridian/internal/stock"
	"github.com/meridian-dist/meridian/jobs"
)

// RouterConfig aggregates every handler mounted on the HTTP surface.
type RouterConfig struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics

	AuthHandler     *auth.Handler
	StockHandler    *stock.Handler
	OrderHandler    *orders.Handler
	ProductHandler  *products.Handler
	LocationHandler *locations.Handler
	ClientHandler   *clients.Handler
	OutletHandler   *outlets.Handler
	JobsHandler     *jobs.Handler
}

// NewRouter assembles the chi router with the full middleware chain.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         cfg.Logger,
		Config:         cfg.Config,
		SessionManager: cfg.SessionManager,
		Metrics:        cfg.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/auth", cfg.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)
		r.Route("/stock", cfg.StockHandler.MountRoutes)
		r.Route("/orders", cfg.OrderHandler.MountRoutes)
		r.Route("/products", cfg.ProductHandler.MountRoutes)
		r.Route("/locations", cfg.LocationHandler.MountRoutes)
		r.Route("/clients", cfg.ClientHandler.MountRoutes)
		r.Route("/outlets", cfg.OutletHandler.MountRoutes)
		if cfg.JobsHandler != nil {
			r.Route("/jobs", cfg.JobsHandler.MountRoutes)
		}
	})

	return r
}
