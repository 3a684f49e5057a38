package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostsync/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hostsync/internal/httpserver/mw"
)

func init() { Register("reconcile", registerReconcile) }

func registerReconcile(r chi.Router, d deps.Deps) {
	cfg := mw.RateLimitConfig{
		Burst:             3,
		RefillPerIPPerMin: 6,
		MaxEntries:        1024,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
	}
	if d.RateLimit != nil {
		cfg.Burst = d.RateLimit.Burst
		cfg.RefillPerIPPerMin = d.RateLimit.RefillPerMin
	}

	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(cfg),
	).Post("/reconcile", handlers.Reconcile(d))
}
