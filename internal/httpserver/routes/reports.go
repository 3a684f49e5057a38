package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostsync/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hostsync/internal/httpserver/mw"
)

func init() { Register("reports", registerReports) }

func registerReports(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Get("/status", handlers.Status(d))
		r.Get("/hosts", handlers.Hosts(d))
		r.Get("/hosts/{name}", handlers.Host(d))
	})
}
