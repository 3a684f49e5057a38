package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostsync/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hostsync/internal/httpserver/mw"
)

func init() { Register("probes", registerProbes) }

func registerProbes(r chi.Router, d deps.Deps) {
	guarded := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	guarded.Get("/healthz", handlers.Healthz(d))
	guarded.Get("/readyz", handlers.Readyz(d))
}
