package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks sync orchestrator activity.
type SyncMetrics struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	fetchAttempts *prometheus.CounterVec
	fetchRetries  prometheus.Counter
	upserts       prometheus.Counter
	refreshes     prometheus.Counter
}

var (
	syncOnce    sync.Once
	syncMetrics *SyncMetrics
)

// Sync returns the process-wide sync metrics, registering them on first use.
func Sync() *SyncMetrics {
	syncOnce.Do(func() {
		syncMetrics = &SyncMetrics{
			runs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tracker",
				Subsystem: "sync",
				Name:      "runs_total",
				Help:      "Sync runs by trigger and outcome.",
			}, []string{"trigger", "status"}),
			runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "tracker",
				Subsystem: "sync",
				Name:      "run_duration_seconds",
				Help:      "Wall time of a full sync run.",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			}),
			fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tracker",
				Subsystem: "sync",
				Name:      "fetch_attempts_total",
				Help:      "Upstream invoice fetch attempts by status and outcome.",
			}, []string{"invoice_status", "outcome"}),
			fetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "tracker",
				Subsystem: "sync",
				Name:      "fetch_retries_total",
				Help:      "Backoff retries against the upstream invoice API.",
			}),
			upserts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "tracker",
				Subsystem: "sync",
				Name:      "record_upserts_total",
				Help:      "Commission record upserts performed by sync runs.",
			}),
			refreshes: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "tracker",
				Subsystem: "sync",
				Name:      "token_refreshes_total",
				Help:      "Access token refreshes performed.",
			}),
		}
		prometheus.MustRegister(
			syncMetrics.runs,
			syncMetrics.runDuration,
			syncMetrics.fetchAttempts,
			syncMetrics.fetchRetries,
			syncMetrics.upserts,
			syncMetrics.refreshes,
		)
	})
	return syncMetrics
}

func (m *SyncMetrics) IncRun(trigger, status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(trigger, status).Inc()
}

func (m *SyncMetrics) ObserveRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

func (m *SyncMetrics) IncFetchAttempt(invoiceStatus, outcome string) {
	if m == nil {
		return
	}
	m.fetchAttempts.WithLabelValues(invoiceStatus, outcome).Inc()
}

func (m *SyncMetrics) IncFetchRetry() {
	if m == nil {
		return
	}
	m.fetchRetries.Inc()
}

func (m *SyncMetrics) IncUpsert() {
	if m == nil {
		return
	}
	m.upserts.Inc()
}

func (m *SyncMetrics) IncTokenRefresh() {
	if m == nil {
		return
	}
	m.refreshes.Inc()
}
