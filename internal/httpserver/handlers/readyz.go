package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready   bool       `json:"ready"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

// Readyz is ready once this process finished its first pass.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Index.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}
		last := d.Index.GetLastRun()
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, LastRun: &last})
	}
}
