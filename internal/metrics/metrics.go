// Package metrics exposes Prometheus collectors for the data-access engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "prices"
	subsystem = "engine"
)

// Load outcomes.
const (
	LoadSuccess = "success"
	LoadShared  = "shared"
	LoadTimeout = "timeout"
)

// Metrics groups the engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	transactions *prometheus.CounterVec
	txDuration   *prometheus.HistogramVec
	loads        *prometheus.CounterVec
	loadAttempts prometheus.Counter
	loadDuration prometheus.Histogram
	cached       *prometheus.GaugeVec
	reclaims     *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transactions_total",
			Help:      "Transactions by operation and outcome status",
		}, []string{"op", "status"}),
		txDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transaction_duration_seconds",
			Help:      "Time spent inside a transaction",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "loads_total",
			Help:      "Dataset loads by outcome",
		}, []string{"outcome"}),
		loadAttempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "load_attempts_total",
			Help:      "Full-set fetch attempts, retries included",
		}),
		loadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "load_duration_seconds",
			Help:      "Time taken by a dataset load",
			Buckets:   prometheus.DefBuckets,
		}),
		cached: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cached_entities",
			Help:      "Entities held in the dataset snapshot",
		}, []string{"kind"}),
		reclaims: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "autoincrement_reclaims_total",
			Help:      "Auto-increment counters reset after a table became empty",
		}, []string{"table"}),
	}
}

func (m *Metrics) ObserveTransaction(op, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(op, status).Inc()
	m.txDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) ObserveLoad(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(outcome).Inc()
	if outcome != LoadShared {
		m.loadDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) LoadAttempt() {
	if m == nil {
		return
	}
	m.loadAttempts.Inc()
}

func (m *Metrics) SetCached(kind string, n int) {
	if m == nil {
		return
	}
	m.cached.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) Reclaimed(table string) {
	if m == nil {
		return
	}
	m.reclaims.WithLabelValues(table).Inc()
}

// Handler serves the collectors of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
