package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salespulse/internal/kpi"
	"salespulse/internal/sheets"
)

const namespace = "salespulse"

// Metrics collects refresh and request telemetry on its own registry. It is a
// dashboard.RefreshObserver.
type Metrics struct {
	registry *prometheus.Registry

	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	snapshotDeals   prometheus.Gauge
	snapshotSkipped prometheus.Gauge
	snapshotLoaded  prometheus.Gauge
	fallback        prometheus.Gauge
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers every collector, plus the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Data refresh attempts by result.",
		}, []string{"result"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent loading and normalizing rows.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		snapshotDeals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_deals",
			Help:      "Deals in the published snapshot.",
		}),
		snapshotSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_skipped_rows",
			Help:      "Rows rejected while building the published snapshot.",
		}),
		snapshotLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_loaded_timestamp_seconds",
			Help:      "Unix time the published rows were fetched.",
		}),
		fallback: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_fallback",
			Help:      "1 when the published snapshot came from the cache or sample data.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		m.refreshes, m.refreshDuration,
		m.snapshotDeals, m.snapshotSkipped, m.snapshotLoaded, m.fallback,
		m.requests, m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRefresh records one refresh attempt.
func (m *Metrics) ObserveRefresh(snap *kpi.Snapshot, elapsed time.Duration, err error) {
	m.refreshDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.refreshes.WithLabelValues("error").Inc()
		return
	}
	m.refreshes.WithLabelValues("ok").Inc()
	if snap == nil {
		return
	}
	m.snapshotDeals.Set(float64(len(snap.Deals)))
	m.snapshotSkipped.Set(float64(snap.Skipped))
	m.snapshotLoaded.Set(float64(snap.LoadedAt.Unix()))
	if sheets.IsLive(snap.Source) {
		m.fallback.Set(0)
	} else {
		m.fallback.Set(1)
	}
}

func (m *Metrics) observeRequest(method, route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
