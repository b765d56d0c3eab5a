// Package monitoring implements real-time error trend tracking: a sliding
// time-window aggregator, a threshold/cooldown alert engine, and the
// periodic monitor loop that drives them.
package monitoring

import (
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// maxAcceptableErrorRate is the fixed rate (errors/min) treated as 0%
// availability. A simplified proxy for uptime, not a measured SLA.
const maxAcceptableErrorRate = 10.0

// DefaultWindow is the reporting window when none is configured.
const DefaultWindow = 5 * time.Minute

// EventWindow keeps a time-ordered sequence of error events per service and
// globally. Entries are retained to twice the reporting window to absorb
// burstiness between eviction passes; reads always filter to the window.
// Safe for concurrent use.
type EventWindow struct {
	window time.Duration

	mu        sync.RWMutex
	global    []domain.ErrorEvent
	byService map[string][]domain.ErrorEvent

	now func() time.Time
}

// NewEventWindow creates an aggregator with the given reporting window.
func NewEventWindow(window time.Duration) *EventWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	return &EventWindow{
		window:    window,
		byService: make(map[string][]domain.ErrorEvent),
		now:       time.Now,
	}
}

// Window returns the configured reporting window.
func (w *EventWindow) Window() time.Duration {
	return w.window
}

// Add appends an event and lazily evicts entries older than twice the
// window. Events arrive in call-completion order; only the oldest end is
// ever evicted.
func (w *EventWindow) Add(e domain.ErrorEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.global = append(w.global, e)
	if e.Service != "" {
		w.byService[e.Service] = append(w.byService[e.Service], e)
	}
	w.evictLocked()
}

func (w *EventWindow) evictLocked() {
	cutoff := w.now().Add(-2 * w.window)
	w.global = trimOlder(w.global, cutoff)
	for svc, events := range w.byService {
		trimmed := trimOlder(events, cutoff)
		if len(trimmed) == 0 {
			delete(w.byService, svc)
		} else {
			w.byService[svc] = trimmed
		}
	}
}

func trimOlder(events []domain.ErrorEvent, cutoff time.Time) []domain.ErrorEvent {
	i := 0
	for i < len(events) && events[i].Timestamp.Before(cutoff) {
		i++
	}
	return events[i:]
}

// Events returns the in-window events for a service, or globally when
// service is empty.
func (w *EventWindow) Events(service string) []domain.ErrorEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.inWindowLocked(service, w.window)
}

// EventsWithin returns the events for a service inside an explicit window.
// A non-positive window means the configured one; windows beyond the
// retention horizon are capped at it.
func (w *EventWindow) EventsWithin(service string, window time.Duration) []domain.ErrorEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.inWindowLocked(service, w.clampWindow(window))
}

// clampWindow bounds a requested window to what the retained entries can
// answer. Entries are only kept to twice the configured window.
func (w *EventWindow) clampWindow(window time.Duration) time.Duration {
	if window <= 0 {
		return w.window
	}
	if max := 2 * w.window; window > max {
		return max
	}
	return window
}

func (w *EventWindow) inWindowLocked(service string, window time.Duration) []domain.ErrorEvent {
	source := w.global
	if service != "" {
		source = w.byService[service]
	}
	cutoff := w.now().Add(-window)

	var out []domain.ErrorEvent
	for _, e := range source {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// ErrorCount returns the raw in-window event count.
func (w *EventWindow) ErrorCount(service string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.inWindowLocked(service, w.window))
}

// ErrorRate returns in-window events per minute.
func (w *EventWindow) ErrorRate(service string) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	minutes := w.window.Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(len(w.inWindowLocked(service, w.window))) / minutes
}

// RecoveryRate returns the fraction of in-window events whose recovery
// succeeded, over events carrying any recovery result. No recovery attempts
// in-window means nothing failed to recover, reported as 1.0.
func (w *EventWindow) RecoveryRate(service string) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	attempted, succeeded := 0, 0
	for _, e := range w.inWindowLocked(service, w.window) {
		if e.Recovery == nil {
			continue
		}
		attempted++
		if e.Recovery.Success {
			succeeded++
		}
	}
	if attempted == 0 {
		return 1.0
	}
	return float64(succeeded) / float64(attempted)
}

// MeanTimeToRecovery returns the mean recovery duration over in-window
// events that carry a recovery result, or 0 if none do.
func (w *EventWindow) MeanTimeToRecovery(service string) time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var total time.Duration
	count := 0
	for _, e := range w.inWindowLocked(service, w.window) {
		if e.Recovery == nil {
			continue
		}
		total += e.Recovery.RecoveryTime
		count++
	}
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// Availability derives a 0-100 score from the error rate against the fixed
// acceptable-rate ceiling.
func (w *EventWindow) Availability(service string) float64 {
	rate := w.ErrorRate(service)
	avail := (maxAcceptableErrorRate - rate) / maxAcceptableErrorRate * 100
	if avail < 0 {
		return 0
	}
	if avail > 100 {
		return 100
	}
	return avail
}

// Aggregates bundles every window metric for one service over one window.
type Aggregates struct {
	ErrorCount          int
	ErrorRate           float64
	RecoveryRate        float64
	MeanTimeToRecovery  time.Duration
	Availability        float64
	CircuitBreakerTrips int
}

// AggregatesWithin computes all metrics in one pass over an explicit window.
// A non-positive window means the configured one; windows beyond the
// retention horizon are capped at it.
func (w *EventWindow) AggregatesWithin(service string, window time.Duration) Aggregates {
	w.mu.RLock()
	defer w.mu.RUnlock()

	window = w.clampWindow(window)
	events := w.inWindowLocked(service, window)

	agg := Aggregates{ErrorCount: len(events)}
	if minutes := window.Minutes(); minutes > 0 {
		agg.ErrorRate = float64(len(events)) / minutes
	}

	attempted, succeeded := 0, 0
	var totalRecovery time.Duration
	for _, e := range events {
		if e.IsCircuitBreakerTrip() {
			agg.CircuitBreakerTrips++
		}
		if e.Recovery == nil {
			continue
		}
		attempted++
		if e.Recovery.Success {
			succeeded++
		}
		totalRecovery += e.Recovery.RecoveryTime
	}
	agg.RecoveryRate = 1.0
	if attempted > 0 {
		agg.RecoveryRate = float64(succeeded) / float64(attempted)
		agg.MeanTimeToRecovery = totalRecovery / time.Duration(attempted)
	}

	avail := (maxAcceptableErrorRate - agg.ErrorRate) / maxAcceptableErrorRate * 100
	agg.Availability = min(max(avail, 0), 100)
	return agg
}

// CircuitBreakerTrips counts in-window events recording a breaker-open
// condition.
func (w *EventWindow) CircuitBreakerTrips(service string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	trips := 0
	for _, e := range w.inWindowLocked(service, w.window) {
		if e.IsCircuitBreakerTrip() {
			trips++
		}
	}
	return trips
}
