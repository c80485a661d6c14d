package age

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the AGE client.
//
// A nil *Metrics is valid and records nothing, so callers that do not export
// metrics pass nil.
type Metrics struct {
	commandsTotal   *prometheus.CounterVec
	queriesTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	rowsTotal       prometheus.Counter
	decodeFailures  prometheus.Counter
	planLookups     *prometheus.CounterVec
	planStoreErrors prometheus.Counter
}

// Plan lookup outcomes, used as the "source" label.
const (
	planSourceMemory      = "memory"
	planSourceStore       = "store"
	planSourceSynthesized = "synthesized"
)

// NewMetrics creates the client metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agego_commands_assembled_total",
				Help: "Total number of AGE commands assembled",
			},
			[]string{"kind"},
		),
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agego_queries_total",
				Help: "Total number of commands executed",
			},
			[]string{"kind", "status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agego_query_duration_seconds",
				Help:    "Duration of command execution including row decoding",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"kind"},
		),
		rowsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agego_rows_total",
				Help: "Total number of result rows decoded",
			},
		),
		decodeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agego_decode_failures_total",
				Help: "Total number of agtype columns that failed to decode",
			},
		),
		planLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agego_plan_lookups_total",
				Help: "Projection plan lookups by the tier that answered",
			},
			[]string{"source"},
		),
		planStoreErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agego_plan_store_errors_total",
				Help: "Total number of persistent plan store failures",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.commandsTotal,
		m.queriesTotal,
		m.queryDuration,
		m.rowsTotal,
		m.decodeFailures,
		m.planLookups,
		m.planStoreErrors,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordCommand counts an assembled command.
func (m *Metrics) RecordCommand(kind CommandKind) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(string(kind)).Inc()
}

// RecordQuery records one command execution.
func (m *Metrics) RecordQuery(kind CommandKind, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.queriesTotal.WithLabelValues(string(kind), status).Inc()
	m.queryDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

// RecordRows adds n decoded rows.
func (m *Metrics) RecordRows(n int) {
	if m == nil {
		return
	}
	m.rowsTotal.Add(float64(n))
}

// RecordDecodeFailure counts a column that failed to decode.
func (m *Metrics) RecordDecodeFailure() {
	if m == nil {
		return
	}
	m.decodeFailures.Inc()
}

// RecordPlanLookup counts a plan lookup answered by source.
func (m *Metrics) RecordPlanLookup(source string) {
	if m == nil {
		return
	}
	m.planLookups.WithLabelValues(source).Inc()
}

// RecordPlanStoreError counts a persistent plan store failure.
func (m *Metrics) RecordPlanStoreError() {
	if m == nil {
		return
	}
	m.planStoreErrors.Inc()
}
