package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category buckets an error by its root cause.
type Category string

const (
	CategoryNetwork        Category = "network_error"
	CategoryAPI            Category = "api_error"
	CategoryTimeout        Category = "timeout_error"
	CategoryValidation     Category = "validation_error"
	CategoryAuthentication Category = "authentication_error"
	CategoryAuthorization  Category = "authorization_error"
	CategoryResource       Category = "resource_error"
	CategoryConfiguration  Category = "configuration_error"
	CategoryData           Category = "data_error"
	CategorySystem         Category = "system_error"
	CategoryUnknown        Category = "unknown_error"
)

// Severity ranks how bad an error is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Strategy selects how an error should be recovered from.
type Strategy string

const (
	StrategyRetry        Strategy = "retry"
	StrategyFallback     Strategy = "fallback"
	StrategyDegrade      Strategy = "degrade"
	StrategyFailFast     Strategy = "fail_fast"
	StrategyCircuitBreak Strategy = "circuit_break"
	StrategyEscalate     Strategy = "escalate"
)

// ErrorContext carries correlation identity through every call that can fail.
// Immutable once created; owned by the call site that raised the error.
type ErrorContext struct {
	ErrorID       string         `json:"error_id"`
	Timestamp     time.Time      `json:"timestamp"`
	CorrelationID string         `json:"correlation_id"`
	WorkflowID    string         `json:"workflow_id,omitempty"`
	AgentName     string         `json:"agent_name,omitempty"`
	StepID        string         `json:"step_id,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	Operation     string         `json:"operation"`
	Component     string         `json:"component"`
	Additional    map[string]any `json:"additional,omitempty"`
}

// NewErrorContext creates a context for a single error occurrence.
func NewErrorContext(component, operation string) ErrorContext {
	return ErrorContext{
		ErrorID:       uuid.New().String(),
		Timestamp:     time.Now(),
		CorrelationID: uuid.New().String(),
		Operation:     operation,
		Component:     component,
	}
}

// ErrorInfo is the classification result for one error occurrence.
// Read-only after classification, except RetryCount which is owned by the
// retry loop of whoever drives the recovery.
type ErrorInfo struct {
	ErrorType   string         `json:"error_type"`
	Message     string         `json:"message"`
	Category    Category       `json:"category"`
	Severity    Severity       `json:"severity"`
	Strategy    Strategy       `json:"recovery_strategy"`
	Context     ErrorContext   `json:"context"`
	Recoverable bool           `json:"recoverable"`
	MaxRetries  int            `json:"max_retries"`
	RetryCount  int            `json:"retry_count"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
