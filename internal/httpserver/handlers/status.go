package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

type passSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Hosts      int       `json:"hosts"`
	Changed    int       `json:"changed"`
	Failed     int       `json:"failed"`
	FetchError string    `json:"fetch_error,omitempty"`
}

type statusResponse struct {
	State       string                     `json:"state"`
	DesiredFile string                     `json:"desired_file"`
	IntervalSec float64                    `json:"interval_seconds"`
	Reports     int                        `json:"reports"`
	LastPass    *passSummary               `json:"last_pass,omitempty"`
	Components  map[string]componentStatus `json:"components"`
}

// Status summarises the last pass and the health of every component.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{
			DesiredFile: d.DesiredFile,
			IntervalSec: d.Interval.Seconds(),
			Reports:     d.Index.Count(),
			Components: map[string]componentStatus{
				"reconciler": reconcilerStatus(d),
				"redis":      checkRedis(r.Context(), d),
			},
		}
		if pass, ok := d.Index.LastPass(); ok {
			resp.LastPass = &passSummary{
				RunID:      pass.RunID,
				StartedAt:  pass.StartedAt,
				DurationMS: pass.Duration.Milliseconds(),
				Hosts:      len(pass.Hosts),
				Changed:    pass.Changed(),
				Failed:     pass.Failed(),
				FetchError: pass.FetchError,
			}
		}
		resp.State = overallState(resp)

		writeJSON(w, http.StatusOK, resp)
	}
}

func reconcilerStatus(d deps.Deps) componentStatus {
	if !d.Index.Ready() {
		return componentStatus{OK: false, Mode: "starting", Detail: "no pass finished yet"}
	}
	pass, _ := d.Index.LastPass()
	switch {
	case pass.FetchError != "":
		return componentStatus{OK: false, Mode: "failing", Error: pass.FetchError}
	case pass.Failed() > 0:
		return componentStatus{OK: false, Mode: "partial", Detail: "some hosts did not converge"}
	}
	return componentStatus{OK: true, Mode: "converged"}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: true, Mode: "disabled", Detail: "reports kept in memory only"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: "degraded", Detail: "reports not persisted, no pass lock", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "shared"}
}

// overallState: critical without a usable pass, degraded when any component
// is unhealthy, ok otherwise.
func overallState(resp statusResponse) string {
	if resp.LastPass == nil || resp.LastPass.FetchError != "" {
		return "critical"
	}
	for _, c := range resp.Components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}
