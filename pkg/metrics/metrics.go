// Package metrics holds the Prometheus collectors shared by the workers and the ledger.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WorkerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_worker_runs_total",
			Help: "Total number of worker runs by outcome",
		},
		[]string{"worker", "status"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_tool_calls_total",
			Help: "Total number of worker operation invocations",
		},
		[]string{"worker", "tool", "status"},
	)

	LedgerTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_ledger_transactions_total",
			Help: "Total number of transactions appended to the ledger",
		},
		[]string{"category"},
	)

	MatcherResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_matcher_resolutions_total",
			Help: "Catalog term resolutions by match method",
		},
		[]string{"method"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paper_request_duration_seconds",
			Help:    "Duration of a full orchestration cycle in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"outcome"},
	)
)

const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusExhausted = "exhausted"
)

func ObserveRequest(start time.Time, outcome string) {
	RequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// Serve exposes the default registry on addr until the listener fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
