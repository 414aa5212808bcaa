// Package metrics exposes Prometheus instrumentation for upstream calls, caches and scans.
//
// All recording methods are safe on a nil *Metrics so components can run uninstrumented in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the radar service.
type Metrics struct {
	gatherer prometheus.Gatherer

	UpstreamRequests  *prometheus.CounterVec   // labels: endpoint, outcome
	UpstreamDuration  *prometheus.HistogramVec // labels: endpoint
	UpstreamMalformed *prometheus.CounterVec   // labels: endpoint

	CacheRequests *prometheus.CounterVec // labels: cache, result

	ScanDuration   *prometheus.HistogramVec // labels: scan
	ScanCandidates *prometheus.GaugeVec     // labels: scan
	ScanResults    *prometheus.GaugeVec     // labels: scan
	ScanDegraded   *prometheus.CounterVec   // labels: scan, lookup

	AlertsSent prometheus.Counter
}

// New registers all metrics on a fresh registry, including Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers all metrics on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_upstream_requests_total",
			Help: "Exchange API calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "radar_upstream_request_duration_seconds",
			Help:    "Exchange API call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		UpstreamMalformed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_upstream_malformed_entries_total",
			Help: "Upstream entries rejected because a numeric field could not be parsed",
		}, []string{"endpoint"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_cache_requests_total",
			Help: "Cache lookups by cache name and result (hit, miss, error)",
		}, []string{"cache", "result"}),
		ScanDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "radar_scan_duration_seconds",
			Help:    "Wall time of a full scan",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"scan"}),
		ScanCandidates: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "radar_scan_candidates",
			Help: "Candidates evaluated by the last scan",
		}, []string{"scan"}),
		ScanResults: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "radar_scan_results",
			Help: "Results returned by the last scan",
		}, []string{"scan"}),
		ScanDegraded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_scan_degraded_lookups_total",
			Help: "Per-candidate lookups that failed and fell back to defaults",
		}, []string{"scan", "lookup"}),
		AlertsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "radar_alerts_sent_total",
			Help: "Explosion alerts delivered to the notifier",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveUpstream(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) AddMalformed(endpoint string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.UpstreamMalformed.WithLabelValues(endpoint).Add(float64(n))
}

func (m *Metrics) CacheHit(cache string)   { m.cacheResult(cache, "hit") }
func (m *Metrics) CacheMiss(cache string)  { m.cacheResult(cache, "miss") }
func (m *Metrics) CacheError(cache string) { m.cacheResult(cache, "error") }

func (m *Metrics) cacheResult(cache, result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(cache, result).Inc()
}

// ObserveScan records the duration and sizes of one completed scan.
func (m *Metrics) ObserveScan(scan string, d time.Duration, candidates, results int) {
	if m == nil {
		return
	}
	m.ScanDuration.WithLabelValues(scan).Observe(d.Seconds())
	m.ScanCandidates.WithLabelValues(scan).Set(float64(candidates))
	m.ScanResults.WithLabelValues(scan).Set(float64(results))
}

func (m *Metrics) Degraded(scan, lookup string) {
	if m == nil {
		return
	}
	m.ScanDegraded.WithLabelValues(scan, lookup).Inc()
}

func (m *Metrics) AlertSent() {
	if m == nil {
		return
	}
	m.AlertsSent.Inc()
}
