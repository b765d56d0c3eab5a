package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/infra/storage"
)

// maxHistory caps the in-memory alert history; the alert store keeps the
// full log.
const maxHistory = 1000

// maxAlertEvents caps how many matching events are attached to one alert.
const maxAlertEvents = 10

// AlertHandler receives every fired alert. Handlers must tolerate being
// called from the monitor goroutine.
type AlertHandler func(ctx context.Context, alert domain.Alert)

// AlertSink records fired alerts with the telemetry collaborator.
type AlertSink interface {
	RecordAlert(a domain.Alert)
}

// Engine evaluates alert rules against the event window, enforces per-rule
// cooldowns, and tracks active alerts. Safe for concurrent use.
type Engine struct {
	window    *EventWindow
	store     storage.AlertRepository
	telemetry AlertSink
	log       *slog.Logger

	mu        sync.Mutex
	rules     map[string]domain.AlertRule
	active    map[string]*domain.Alert
	history   []domain.Alert
	lastFired map[string]time.Time
	handlers  []AlertHandler

	now func() time.Time
}

// NewEngine creates an alert engine seeded with the default rule set.
// store and telemetry may be nil.
func NewEngine(window *EventWindow, store storage.AlertRepository, telemetry AlertSink, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		window:    window,
		store:     store,
		telemetry: telemetry,
		log:       log,
		rules:     make(map[string]domain.AlertRule),
		active:    make(map[string]*domain.Alert),
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
	for _, r := range DefaultRules() {
		e.rules[r.Name] = r
	}
	return e
}

// Evaluate runs every enabled rule once and returns the alerts fired this
// cycle. Notification runs after the engine lock is released, so handlers
// may call back into alert administration. Broken alert handlers are caught
// and logged, never propagated.
func (e *Engine) Evaluate(ctx context.Context) []domain.Alert {
	e.mu.Lock()
	now := e.now()
	var fired []domain.Alert

	for name, rule := range e.rules {
		if !rule.Enabled {
			continue
		}
		if last, ok := e.lastFired[name]; ok && now.Sub(last) < rule.Cooldown {
			continue
		}

		value := e.metricValue(rule)
		if value < rule.Threshold {
			continue
		}

		matching := e.matchingEvents(rule)
		if len(matching) == 0 && !isWindowAggregate(rule.Metric) {
			continue
		}

		alert := domain.Alert{
			ID:          uuid.New().String(),
			RuleName:    rule.Name,
			Level:       rule.Level,
			Message:     alertMessage(rule, value),
			Timestamp:   now,
			MetricValue: value,
			Threshold:   rule.Threshold,
			Events:      matching,
		}
		e.admitLocked(alert)
		e.lastFired[name] = now
		fired = append(fired, alert)
	}
	handlers := append([]AlertHandler(nil), e.handlers...)
	e.mu.Unlock()

	for _, alert := range fired {
		e.announce(ctx, alert, handlers)
	}
	return fired
}

// admitLocked records a fired alert in the active set and history. Caller
// holds the lock.
func (e *Engine) admitLocked(alert domain.Alert) {
	e.active[alert.ID] = &alert
	e.history = append(e.history, alert)
	if len(e.history) > maxHistory {
		e.history = e.history[len(e.history)-maxHistory:]
	}
}

// announce runs the fire side effects for one alert without holding the
// engine lock: log, telemetry, store, then the registered handlers.
func (e *Engine) announce(ctx context.Context, alert domain.Alert, handlers []AlertHandler) {
	e.log.Warn("Alert fired",
		"alert_id", alert.ID,
		"rule", alert.RuleName,
		"level", alert.Level,
		"value", alert.MetricValue,
		"threshold", alert.Threshold,
	)
	if e.telemetry != nil {
		e.telemetry.RecordAlert(alert)
	}
	if e.store != nil {
		if err := e.store.Add(ctx, &alert); err != nil {
			e.log.Warn("Failed to persist alert", "alert_id", alert.ID, "error", err)
		}
	}

	for _, h := range handlers {
		e.notify(ctx, h, alert)
	}
}

func (e *Engine) notify(ctx context.Context, h AlertHandler, alert domain.Alert) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Alert handler panicked", "alert_id", alert.ID, "panic", r)
		}
	}()
	h(ctx, alert)
}

// metricValue computes the rule's metric over the rule's own window (the
// aggregator's when unset), inverting low-is-bad metrics so that exceeding
// the threshold always means worse.
func (e *Engine) metricValue(rule domain.AlertRule) float64 {
	agg := e.window.AggregatesWithin(rule.Conditions.Service, rule.Window)
	switch rule.Metric {
	case domain.MetricErrorRate:
		return agg.ErrorRate
	case domain.MetricErrorCount:
		return float64(agg.ErrorCount)
	case domain.MetricRecoveryRate:
		return 1.0 - agg.RecoveryRate
	case domain.MetricMeanTimeToRecovery:
		return agg.MeanTimeToRecovery.Seconds()
	case domain.MetricAvailability:
		return 100.0 - agg.Availability
	case domain.MetricCircuitBreakerTrips:
		return float64(agg.CircuitBreakerTrips)
	default:
		return 0
	}
}

func (e *Engine) matchingEvents(rule domain.AlertRule) []domain.ErrorEvent {
	var matching []domain.ErrorEvent
	for _, ev := range e.window.EventsWithin(rule.Conditions.Service, rule.Window) {
		if rule.Conditions.Matches(ev) {
			matching = append(matching, ev)
			if len(matching) == maxAlertEvents {
				break
			}
		}
	}
	return matching
}

// isWindowAggregate reports whether a metric describes the window as a
// whole rather than individual matching events.
func isWindowAggregate(m domain.MetricType) bool {
	switch m {
	case domain.MetricErrorRate, domain.MetricAvailability,
		domain.MetricRecoveryRate, domain.MetricMeanTimeToRecovery:
		return true
	default:
		return false
	}
}

func alertMessage(rule domain.AlertRule, value float64) string {
	switch rule.Metric {
	case domain.MetricRecoveryRate:
		return fmt.Sprintf("%s: recovery rate %.0f%% below acceptable level", rule.Name, (1.0-value)*100)
	case domain.MetricAvailability:
		return fmt.Sprintf("%s: availability %.1f%% below acceptable level", rule.Name, 100.0-value)
	case domain.MetricMeanTimeToRecovery:
		return fmt.Sprintf("%s: mean time to recovery %.1fs exceeds %.1fs", rule.Name, value, rule.Threshold)
	default:
		return fmt.Sprintf("%s: %s %.2f exceeds threshold %.2f", rule.Name, rule.Metric, value, rule.Threshold)
	}
}

// Acknowledge marks an active alert acknowledged. Returns false for unknown
// ids; calling twice is harmless.
func (e *Engine) Acknowledge(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.active[id]
	if !ok {
		return false
	}
	alert.Acknowledged = true
	if e.store != nil {
		if err := e.store.SetAcknowledged(ctx, id); err != nil {
			e.log.Warn("Failed to persist acknowledgement", "alert_id", id, "error", err)
		}
	}
	e.log.Info("Alert acknowledged", "alert_id", id)
	return true
}

// Resolve removes an alert from the active set; it stays in history.
// Returns false for unknown or already resolved ids.
func (e *Engine) Resolve(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.active[id]
	if !ok {
		return false
	}
	alert.Resolved = true
	delete(e.active, id)
	for i := range e.history {
		if e.history[i].ID == id {
			e.history[i].Resolved = true
		}
	}
	if e.store != nil {
		if err := e.store.SetResolved(ctx, id); err != nil {
			e.log.Warn("Failed to persist resolution", "alert_id", id, "error", err)
		}
	}
	e.log.Info("Alert resolved", "alert_id", id)
	return true
}

// ActiveAlerts returns a snapshot of unresolved alerts.
func (e *Engine) ActiveAlerts() []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, *a)
	}
	return out
}

// History returns the newest alerts, newest last, capped at limit
// (0 means all retained history).
func (e *Engine) History(limit int) []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]domain.Alert, len(h))
	copy(out, h)
	return out
}

// AddRule adds or replaces a rule.
func (e *Engine) AddRule(rule domain.AlertRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[rule.Name] = rule
	e.log.Info("Alert rule added", "rule", rule.Name, "metric", rule.Metric, "threshold", rule.Threshold)
}

// RemoveRule deletes a rule by name. Returns false if it did not exist.
func (e *Engine) RemoveRule(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[name]; !ok {
		return false
	}
	delete(e.rules, name)
	return true
}

// RuleCount returns the number of configured rules.
func (e *Engine) RuleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rules)
}

// AddHandler registers an external alert notification handler.
func (e *Engine) AddHandler(h AlertHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}
