package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostsync/internal/httpserver/mw"
	"github.com/MrSnakeDoc/hostsync/internal/metrics"
)

func init() { Register("metrics", registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Method("GET", "/metrics", metrics.Handler())
}
