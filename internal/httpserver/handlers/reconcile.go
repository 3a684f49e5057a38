package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hostsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
)

type triggerResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

// Reconcile queues a pass. Only one pass can wait at a time, a second
// request while one is pending gets 429.
func Reconcile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.Trigger <- struct{}{}:
			d.Logger.Info("manual pass triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, triggerResponse{Queued: true, Message: "pass queued"})
		default:
			d.Logger.Warn("manual pass refused, one is already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, triggerResponse{Queued: false, Message: "a pass is already pending"})
		}
	}
}
