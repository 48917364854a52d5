package executor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/dspchain/internal/table"
)

const namespace = "dspchain"

// Metrics are the Prometheus collectors updated by a run.
type Metrics struct {
	EventsProcessed    prometheus.Counter
	OutputsUnavailable *prometheus.CounterVec
	ContractViolations prometheus.Counter
	ProcessingSeconds  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Events run through the chain and written to the sink.",
		}),
		OutputsUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_unavailable_total",
			Help:      "Projected outputs holding the not-available sentinel, by output name.",
		}, []string{"output"}),
		ContractViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_violations_total",
			Help:      "Events that aborted a run with a contract violation.",
		}),
		ProcessingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_processing_seconds",
			Help:      "Time spent executing and projecting one event.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.EventsProcessed, m.OutputsUnavailable, m.ContractViolations, m.ProcessingSeconds)
	}
	return m
}

func (m *Metrics) observeRow(row *table.Row, seconds float64) {
	if m == nil {
		return
	}
	m.ProcessingSeconds.Observe(seconds)
	for _, f := range row.Fields {
		if !f.Available() {
			m.OutputsUnavailable.WithLabelValues(f.Name).Inc()
		}
	}
}

func (m *Metrics) written() {
	if m != nil {
		m.EventsProcessed.Inc()
	}
}

func (m *Metrics) violation() {
	if m != nil {
		m.ContractViolations.Inc()
	}
}
