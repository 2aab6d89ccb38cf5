package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/pixbridge/adapter"
	"github.com/marcelsud/pixbridge/cache"
	"github.com/marcelsud/pixbridge/connection"
	"github.com/marcelsud/pixbridge/integration"
	"github.com/marcelsud/pixbridge/presets"
	"github.com/rs/zerolog"
)

// Dependencies are the services the HTTP API is built on; Metrics and Cache are optional
type Dependencies struct {
	Systems   integration.UseCase
	Presets   *presets.Loader
	Monitor   *connection.Monitor
	Cache     *cache.Store
	Exchange  *adapter.Exchange
	Metrics   http.Handler
	PricesTTL time.Duration
	Logger    zerolog.Logger
}

// Handlers sets up the admin API routes
func Handlers(ctx context.Context, deps Dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodGet, "/systems", getSystems(deps.Systems))
		r.Method(http.MethodGet, "/systems/{id}", getSystem(deps.Systems))
		r.Method(http.MethodPut, "/systems/{id}", putSystem(deps.Systems))
		r.Method(http.MethodDelete, "/systems/{id}", deleteSystem(deps.Systems))
		r.Method(http.MethodPost, "/systems/{id}/dispatch", postDispatch(deps.Systems))
		r.Method(http.MethodPost, "/systems/{id}/webhooks/{event}", postWebhook(deps.Systems))

		r.Method(http.MethodGet, "/presets", getPresets(deps.Presets))
		r.Method(http.MethodPost, "/presets/{name}/setup", postPresetSetup(deps.Presets, deps.Systems))

		r.Method(http.MethodGet, "/connection", getConnection(deps.Monitor))
		r.Method(http.MethodPut, "/connection", putConnection(deps.Monitor))
		r.Method(http.MethodGet, "/prices", getPrices(deps.Exchange, deps.Cache, deps.Monitor, deps.PricesTTL))
	})

	return r
}
