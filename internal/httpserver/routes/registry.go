package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

// group is one area of the API (probes, reconcile trigger, reports, metrics)
// mounted with its own middlewares.
type group struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var registry []group

// Register adds a route group from a file's init. Names must be unique.
func Register(name string, reg Registrar, mws ...Middleware) {
	for _, g := range registry {
		if g.name == name {
			panic(fmt.Sprintf("routes: group %q registered twice", name))
		}
	}
	registry = append(registry, group{name: name, reg: reg, mws: mws})
}

// Groups lists the registered group names in mount order.
func Groups() []string {
	names := make([]string, len(registry))
	for i, g := range registry {
		names[i] = g.name
	}
	return names
}

// RegisterAll mounts every group on r. Called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range registry {
		sub := r
		if len(g.mws) > 0 {
			sub = r.With(g.mws...)
		}
		g.reg(sub, d)
		d.Logger.Debug("route group mounted",
			logger.String("group", g.name),
			logger.Int("middlewares", len(g.mws)))
	}
}
