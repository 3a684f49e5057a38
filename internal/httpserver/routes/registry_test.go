package routes

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
)

// withRegistry swaps the package registry for the duration of a test.
func withRegistry(t *testing.T) {
	t.Helper()
	saved := registry
	registry = nil
	t.Cleanup(func() { registry = saved })
}

func TestGroupsRegisteredByInit(t *testing.T) {
	groups := Groups()
	for _, want := range []string{"metrics", "probes", "reconcile", "reports"} {
		if !slices.Contains(groups, want) {
			t.Errorf("Groups() = %v, missing %q", groups, want)
		}
	}
}

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	withRegistry(t)
	noop := func(chi.Router, deps.Deps) {}
	Register("status", noop)

	defer func() {
		if recover() == nil {
			t.Error("Register() should panic on a duplicate group name")
		}
	}()
	Register("status", noop)
}

func TestRegisterAllAppliesGroupMiddlewares(t *testing.T) {
	withRegistry(t)

	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Group", "tagged")
			next.ServeHTTP(w, r)
		})
	}
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	Register("plain", func(r chi.Router, _ deps.Deps) { r.Get("/plain", ok) })
	Register("tagged", func(r chi.Router, _ deps.Deps) { r.Get("/tagged", ok) }, tag)

	r := chi.NewRouter()
	RegisterAll(r, deps.Deps{Logger: logger.NewNop()})

	tests := []struct {
		path string
		want string
	}{
		{"/plain", ""},
		{"/tagged", "tagged"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", tt.path, rec.Code)
		}
		if got := rec.Header().Get("X-Group"); got != tt.want {
			t.Errorf("GET %s X-Group = %q, want %q", tt.path, got, tt.want)
		}
	}
}
