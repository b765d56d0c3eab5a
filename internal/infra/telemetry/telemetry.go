// Package telemetry implements the metrics sink collaborator on top of
// Prometheus, with an in-memory counter map backing the read accessor.
package telemetry

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vietddude/sentinel/internal/core/domain"
)

var (
	// ErrorsTotal tracks classified errors by category and severity.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_errors_total",
			Help: "Total number of classified errors",
		},
		[]string{"error_type", "category", "severity", "component"},
	)

	// AlertsTotal tracks fired alerts by rule and level.
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_alerts_total",
			Help: "Total number of fired alerts",
		},
		[]string{"rule", "level"},
	)

	// MonitoringMetric exposes the monitor's aggregate gauges.
	MonitoringMetric = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_monitoring_metric",
			Help: "Aggregate monitoring metric values",
		},
		[]string{"name", "unit"},
	)
)

// Sink records error, alert, and monitoring metrics. It satisfies the
// dispatcher and monitoring sink contracts. Safe for concurrent use.
type Sink struct {
	mu       sync.RWMutex
	counters map[string]int64
}

// NewSink creates a telemetry sink.
func NewSink() *Sink {
	return &Sink{counters: make(map[string]int64)}
}

// RecordError counts a classified error.
func (s *Sink) RecordError(info domain.ErrorInfo) {
	ErrorsTotal.WithLabelValues(
		info.ErrorType,
		string(info.Category),
		string(info.Severity),
		info.Context.Component,
	).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters["errors_total"]++
	s.counters[fmt.Sprintf("errors_%s", info.Category)]++
	s.counters[fmt.Sprintf("errors_severity_%s", info.Severity)]++
	if !info.Recoverable {
		s.counters["errors_non_recoverable"]++
	}
}

// RecordAlert counts a fired alert.
func (s *Sink) RecordAlert(a domain.Alert) {
	AlertsTotal.WithLabelValues(a.RuleName, string(a.Level)).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters["alerts_total"]++
	s.counters[fmt.Sprintf("alerts_%s", a.Level)]++
}

// RecordMonitoringMetric sets an aggregate monitoring gauge.
func (s *Sink) RecordMonitoringMetric(name string, value float64, unit string) {
	MonitoringMetric.WithLabelValues(name, unit).Set(value)
}

// ErrorMetrics returns a copy of the locally recorded counters.
func (s *Sink) ErrorMetrics() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}
