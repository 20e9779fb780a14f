// Package metrics exposes Prometheus counters for the query pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the pipeline counters. A nil *Metrics records nothing.
type Metrics struct {
	queries           *prometheus.CounterVec
	steps             *prometheus.CounterVec
	planFailures      *prometheus.CounterVec
	synthesisFailures prometheus.Counter
}

// New registers the counters with reg. A nil reg uses the default
// registerer, which may only happen once per process.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_assistant_queries_total",
			Help: "Queries answered, by route (single, multi, fallback).",
		}, []string{"route"}),
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_assistant_steps_total",
			Help: "Operation executions, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		planFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_assistant_plan_failures_total",
			Help: "Planner failures that fell back to single-step handling, by reason.",
		}, []string{"reason"}),
		synthesisFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "expense_assistant_synthesis_failures_total",
			Help: "Synthesis calls that failed and returned raw step results.",
		}),
	}
}

// Query counts one answered query.
func (m *Metrics) Query(route string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(route).Inc()
}

// Step counts one operation execution.
func (m *Metrics) Step(operation, outcome string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(operation, outcome).Inc()
}

// PlanFailure counts one planner failure.
func (m *Metrics) PlanFailure(reason string) {
	if m == nil {
		return
	}
	m.planFailures.WithLabelValues(reason).Inc()
}

// SynthesisFailure counts one failed synthesis.
func (m *Metrics) SynthesisFailure() {
	if m == nil {
		return
	}
	m.synthesisFailures.Inc()
}
