package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostsync/internal/reconcile"
)

type hostsResponse struct {
	Count int                    `json:"count"`
	Hosts []reconcile.HostReport `json:"hosts"`
}

// Hosts lists the latest report of every host. ?failed=true keeps only
// failures, ?orphaned=false hides hosts that left the desired file.
func Hosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		failedOnly, _ := strconv.ParseBool(q.Get("failed"))
		orphaned := true
		if v := q.Get("orphaned"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				orphaned = b
			}
		}

		hosts := make([]reconcile.HostReport, 0, d.Index.Count())
		for _, hr := range d.Index.Reports() {
			if failedOnly && !hr.Failed() {
				continue
			}
			if !orphaned && hr.Orphaned {
				continue
			}
			hosts = append(hosts, hr)
		}
		writeJSON(w, http.StatusOK, hostsResponse{Count: len(hosts), Hosts: hosts})
	}
}

// Host returns one host report or 404.
func Host(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		hr, ok := d.Index.Report(name)
		if !ok {
			writeError(w, http.StatusNotFound, "no report for host "+name)
			return
		}
		writeJSON(w, http.StatusOK, hr)
	}
}
