// Package metrics holds the Prometheus collectors for entry mutations. All
// collectors live on a private registry served by Handler.
package metrics

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels.
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpTransition = "transition"
)

// Metrics records engine activity. A nil *Metrics is a no-op so callers and
// tests can skip instrumentation.
type Metrics struct {
	registry      *prometheus.Registry
	handler       http.Handler
	mutations     *prometheus.CounterVec
	bulkItems     *prometheus.CounterVec
	auditFailures prometheus.Counter
	storeDuration *prometheus.HistogramVec
	entries       *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_entries_mutations_total",
		Help: "Entry mutations by department, operation and outcome",
	}, []string{"department", "operation", "outcome"})

	bulkItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_bulk_items_total",
		Help: "Items processed by bulk operations",
	}, []string{"department", "operation", "outcome"})

	auditFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memoria_audit_write_failures_total",
		Help: "Audit entries that could not be written",
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memoria_store_op_duration_seconds",
		Help:    "Duration of service-level store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	entries := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "memoria_entries",
		Help: "Stored entries by department and status, refreshed in the background",
	}, []string{"department", "status"})

	registry.MustRegister(
		mutations, bulkItems, auditFailures, storeDuration, entries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:      registry,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		mutations:     mutations,
		bulkItems:     bulkItems,
		auditFailures: auditFailures,
		storeDuration: storeDuration,
		entries:       entries,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Mutation counts one entry mutation.
func (m *Metrics) Mutation(department, operation string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(department, operation, Outcome(err)).Inc()
}

// BulkItem counts one item of a bulk run.
func (m *Metrics) BulkItem(department, operation string, err error) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(department, operation, Outcome(err)).Inc()
}

// AuditFailure counts an audit write that was dropped.
func (m *Metrics) AuditFailure() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}

// SetEntryCount records how many entries of department are in status.
func (m *Metrics) SetEntryCount(department, status string, n int64) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues(department, status).Set(float64(n))
}

// Time starts a timer for operation; call the result when done.
func (m *Metrics) Time(operation string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.storeDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// Outcome turns an error into a low-cardinality label: "ok", the lower-cased
// apperr code, or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Code != "" {
		return strings.ToLower(ae.Code)
	}
	return "error"
}
