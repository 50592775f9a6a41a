package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one scan run. It uses its own registry so
// the result can be written as a node-exporter textfile when the run ends.
type Metrics struct {
	reg *prometheus.Registry

	pagesTotal        prometheus.Counter
	keysScannedTotal  prometheus.Counter
	keysSelectedTotal prometheus.Counter
	fetchFailedTotal  prometheus.Counter
	fetchDuration     prometheus.Histogram
	batchesInFlight   prometheus.Gauge
	lastRunTimestamp  prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,

		// Enumeration metrics
		pagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "redis_idle_scan_pages_total",
			Help: "Total number of SCAN pages dispatched",
		}),
		keysScannedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "redis_idle_scan_keys_scanned_total",
			Help: "Total number of keys examined",
		}),

		// Selection metrics
		keysSelectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "redis_idle_scan_keys_selected_total",
			Help: "Total number of keys that matched the filter",
		}),

		// Batch fetch metrics
		fetchFailedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "redis_idle_scan_fetch_failed_total",
			Help: "Total number of failed batched metadata requests",
		}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "redis_idle_scan_fetch_duration_seconds",
			Help:    "Batched metadata request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		batchesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "redis_idle_scan_batches_in_flight",
			Help: "Number of batched metadata requests not yet resolved",
		}),

		lastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "redis_idle_scan_last_run_timestamp_seconds",
			Help: "Unix time the last scan finished",
		}),
	}
}

// PageDispatched records a page of n keys handed to the fetcher
func (m *Metrics) PageDispatched(n int) {
	m.pagesTotal.Inc()
	m.keysScannedTotal.Add(float64(n))
}

// BatchResolved records the outcome of one batched metadata request
func (m *Metrics) BatchResolved(d time.Duration, err error) {
	m.fetchDuration.Observe(d.Seconds())
	if err != nil {
		m.fetchFailedTotal.Inc()
	}
}

// KeySelected records a key that passed the filter
func (m *Metrics) KeySelected() {
	m.keysSelectedTotal.Inc()
}

// SetInFlight sets the number of outstanding batches
func (m *Metrics) SetInFlight(n int) {
	m.batchesInFlight.Set(float64(n))
}

// WriteTextfile stamps the run time and writes every collector to path in
// the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	m.lastRunTimestamp.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, m.reg)
}
