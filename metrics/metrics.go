// Package metrics exposes Prometheus metrics for the notifier.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CyclesTotal counts finished reconciliation cycles.
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordernotify_cycles_total",
		Help: "Completed reconciliation cycles",
	})

	// CycleDuration observes full-cycle wall time.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ordernotify_cycle_duration_seconds",
		Help:    "Reconciliation cycle duration",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// PairFailures counts (user, exchange) pairs whose reconciliation
	// failed; the cycle itself keeps going.
	PairFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordernotify_pair_failures_total",
		Help: "Failed per-user-per-exchange reconciliations",
	}, []string{"exchange"})

	// OrdersNotified counts order notifications handed to the notifier.
	OrdersNotified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordernotify_orders_notified_total",
		Help: "Order notifications handed to the notifier",
	}, []string{"exchange"})

	// RequestRetries counts retried exchange requests.
	RequestRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordernotify_request_retries_total",
		Help: "Exchange request retry attempts",
	})

	// NotifyFailures counts per-channel delivery failures.
	NotifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordernotify_notify_failures_total",
		Help: "Notification channel delivery failures",
	}, []string{"channel"})
)

// StartMetricsServer 启动 Prometheus 指标服务
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
