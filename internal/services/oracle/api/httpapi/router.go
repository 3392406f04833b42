// Package httpapi serves the oracle and journal operations over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/oppajeom/oppajeom/internal/core/hexagram/catalog"
	"github.com/oppajeom/oppajeom/internal/services/interpret"
	"github.com/oppajeom/oppajeom/internal/services/journal/service"
	"github.com/oppajeom/oppajeom/internal/services/oracle/metrics"
)

// Deps wires the router. Journal and Interpreter are required.
type Deps struct {
	Journal     *service.Service
	Interpreter interpret.Interpreter
	Catalog     *catalog.Catalog
	Metrics     *metrics.Metrics
	// RatePerSecond and RateBurst bound requests per client. Zero disables
	// the limit.
	RatePerSecond float64
	RateBurst     int
	// TrustedProxies may set X-Forwarded-For. Others are keyed by peer.
	TrustedProxies []netip.Prefix
}

type handler struct {
	journal     *service.Service
	interpreter interpret.Interpreter
	catalog     *catalog.Catalog
	metrics     *metrics.Metrics
}

// NewRouter builds the API routes. Background upkeep such as pruning idle
// rate limiters stops when ctx ends.
func NewRouter(ctx context.Context, deps Deps) (http.Handler, error) {
	if deps.Journal == nil {
		return nil, errors.New("journal service is required")
	}
	if deps.Interpreter == nil {
		return nil, errors.New("interpreter is required")
	}
	h := &handler{
		journal:     deps.Journal,
		interpreter: deps.Interpreter,
		catalog:     deps.Catalog,
		metrics:     deps.Metrics,
	}
	if h.catalog == nil {
		c, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		h.catalog = c
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}

	r := chi.NewRouter()
	r.Use(h.metrics.Instrument)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/v1", func(api chi.Router) {
		if deps.RatePerSecond > 0 {
			limiter := newClientLimiter(deps.RatePerSecond, deps.RateBurst, deps.TrustedProxies)
			go limiter.run(ctx, limiterSweep, limiterIdle)
			api.Use(limiter.middleware)
		}
		api.Post("/readings", h.createReading)
		api.Post("/readings/premium", h.createPremium)
		api.Post("/reflections", h.createReflection)
		api.Get("/hexagrams/{code}", h.getHexagram)
		api.Post("/subscriptions", h.subscribe)
		api.Post("/subscriptions/login", h.login)

		api.Route("/journal", func(journal chi.Router) {
			journal.Use(requireBearer(h.journal))
			journal.Get("/week", h.getWeek)
			journal.Post("/week", h.generateWeek)
			journal.Get("/week/card.png", h.getCard)
			journal.Get("/logs", h.listLogs)
		})
	})
	return r, nil
}
