// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hostsync"

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	passesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Reconciliation passes by result",
		},
		[]string{"result"},
	)

	passDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a full reconciliation pass",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	lastPassTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pass_timestamp_seconds",
			Help:      "Unix time the last pass finished",
		},
	)

	hostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hosts_reconciled_total",
			Help:      "Hosts reconciled by action and result",
		},
		[]string{"action", "result"},
	)

	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Mutating operations applied by kind and result",
		},
		[]string{"kind", "result"},
	)

	remoteCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "JSON-RPC calls issued by method and result",
		},
		[]string{"method", "result"},
	)

	remoteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "JSON-RPC call latency by method",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObservePass records the outcome of a whole pass.
func ObservePass(err error, elapsed time.Duration) {
	passesTotal.WithLabelValues(result(err)).Inc()
	passDuration.Observe(elapsed.Seconds())
	lastPassTimestamp.SetToCurrentTime()
}

// ObserveHost records one host reconciliation.
func ObserveHost(action string, err error) {
	hostsTotal.WithLabelValues(action, result(err)).Inc()
}

// ObserveOperation records one applied operation.
func ObserveOperation(kind string, err error) {
	operationsTotal.WithLabelValues(kind, result(err)).Inc()
}

// ObserveRemoteCall records one JSON-RPC round trip.
func ObserveRemoteCall(method string, err error, elapsed time.Duration) {
	remoteCalls.WithLabelValues(method, result(err)).Inc()
	remoteLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
