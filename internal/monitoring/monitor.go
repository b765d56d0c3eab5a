package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SystemStatus represents the health state derived from current metrics.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// MonitoringSink records aggregate monitoring metrics with the telemetry
// collaborator.
type MonitoringSink interface {
	RecordMonitoringMetric(name string, value float64, unit string)
}

// Status is a point-in-time snapshot of the monitor.
type Status struct {
	Running         bool          `json:"running"`
	Window          time.Duration `json:"window"`
	ActiveAlerts    int           `json:"active_alerts"`
	ConfiguredRules int           `json:"configured_rules"`
	EventsInWindow  int           `json:"events_in_window"`
	ErrorRate       float64       `json:"error_rate"`
	RecoveryRate    float64       `json:"recovery_rate"`
	Availability    float64       `json:"availability"`
	MTTRSeconds     float64       `json:"mttr_seconds"`
}

// ServiceReport is the per-service subset of the monitor metrics.
type ServiceReport struct {
	Service             string       `json:"service"`
	Status              SystemStatus `json:"status"`
	ErrorCount          int          `json:"error_count"`
	ErrorRate           float64      `json:"error_rate"`
	RecoveryRate        float64      `json:"recovery_rate"`
	Availability        float64      `json:"availability"`
	MTTRSeconds         float64      `json:"mttr_seconds"`
	CircuitBreakerTrips int          `json:"circuit_breaker_trips"`
}

// Monitor owns the periodic evaluation cycle: each tick it runs the alert
// engine and records aggregate monitoring metrics. Per-tick failures are
// logged and never terminate the loop.
type Monitor struct {
	window    *EventWindow
	engine    *Engine
	telemetry MonitoringSink
	log       *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMonitor creates a monitor. telemetry may be nil.
func NewMonitor(window *EventWindow, engine *Engine, telemetry MonitoringSink, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{window: window, engine: engine, telemetry: telemetry, log: log}
}

// Start spawns the periodic evaluation goroutine. Returns an error if the
// monitor is already running.
func (m *Monitor) Start(interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("monitor already running")
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.run(ctx, interval)
	m.log.Info("Error monitoring started", "interval", interval, "window", m.window.Window())
	return nil
}

// Stop cancels the loop and awaits the in-flight tick, including any alert
// handler notifications it dispatched.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
	m.log.Info("Error monitoring stopped")
}

func (m *Monitor) run(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("Monitoring cycle panicked", "panic", r)
		}
	}()

	fired := m.engine.Evaluate(ctx)
	if len(fired) > 0 {
		m.log.Info("Monitoring cycle fired alerts", "count", len(fired))
	}

	if m.telemetry != nil {
		m.telemetry.RecordMonitoringMetric("error_rate", m.window.ErrorRate(""), "errors/min")
		m.telemetry.RecordMonitoringMetric("recovery_rate", m.window.RecoveryRate(""), "ratio")
		m.telemetry.RecordMonitoringMetric("active_alerts", float64(len(m.engine.ActiveAlerts())), "alerts")
	}
}

// Status returns a snapshot of the monitor and global metrics.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	return Status{
		Running:         running,
		Window:          m.window.Window(),
		ActiveAlerts:    len(m.engine.ActiveAlerts()),
		ConfiguredRules: m.engine.RuleCount(),
		EventsInWindow:  m.window.ErrorCount(""),
		ErrorRate:       m.window.ErrorRate(""),
		RecoveryRate:    m.window.RecoveryRate(""),
		Availability:    m.window.Availability(""),
		MTTRSeconds:     m.window.MeanTimeToRecovery("").Seconds(),
	}
}

// ServiceHealth returns the per-service subset of the monitor metrics.
func (m *Monitor) ServiceHealth(service string) ServiceReport {
	report := ServiceReport{
		Service:             service,
		ErrorCount:          m.window.ErrorCount(service),
		ErrorRate:           m.window.ErrorRate(service),
		RecoveryRate:        m.window.RecoveryRate(service),
		Availability:        m.window.Availability(service),
		MTTRSeconds:         m.window.MeanTimeToRecovery(service).Seconds(),
		CircuitBreakerTrips: m.window.CircuitBreakerTrips(service),
	}

	switch {
	case report.ErrorRate >= maxAcceptableErrorRate || report.RecoveryRate < 0.25:
		report.Status = StatusCritical
	case report.ErrorCount > 0 && (report.Availability < 95 || report.RecoveryRate < 0.75):
		report.Status = StatusDegraded
	default:
		report.Status = StatusHealthy
	}
	return report
}

// Alerts exposes the engine for alert administration.
func (m *Monitor) Alerts() *Engine {
	return m.engine
}
