package domain

import "time"

// ErrorEvent is a monitoring record of one handled error.
// Appended to the sliding window store; never mutated.
type ErrorEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Info      ErrorInfo       `json:"error_info"`
	Recovery  *RecoveryResult `json:"recovery_result,omitempty"`
	Service   string          `json:"service,omitempty"`
	Component string          `json:"component,omitempty"`
}

// IsCircuitBreakerTrip reports whether the event records a breaker-open
// condition rather than an ordinary failure.
func (e ErrorEvent) IsCircuitBreakerTrip() bool {
	return e.Info.ErrorType == "CircuitOpenError" || e.Info.Strategy == StrategyCircuitBreak
}
