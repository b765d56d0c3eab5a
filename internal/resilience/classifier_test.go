package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vietddude/sentinel/internal/core/domain"
)

func TestClassify_TableLookup(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category domain.Category
		severity domain.Severity
		strategy domain.Strategy
		retries  int
	}{
		{"connection", ConnectionError{Msg: "connection refused"}, domain.CategoryNetwork, domain.SeverityHigh, domain.StrategyRetry, 3},
		{"timeout", TimeoutError{Msg: "request timed out"}, domain.CategoryTimeout, domain.SeverityMedium, domain.StrategyRetry, 2},
		{"api", APIError{Service: "pricing", StatusCode: 502, Msg: "bad gateway"}, domain.CategoryAPI, domain.SeverityMedium, domain.StrategyRetry, 3},
		{"validation", ValidationError{Msg: "bad input"}, domain.CategoryValidation, domain.SeverityLow, domain.StrategyFailFast, 0},
		{"auth", AuthenticationError{Msg: "bad token"}, domain.CategoryAuthentication, domain.SeverityHigh, domain.StrategyFailFast, 0},
		{"circuit", CircuitOpenError{Service: "compute"}, domain.CategoryAPI, domain.SeverityMedium, domain.StrategyCircuitBreak, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Classify(tt.err, domain.NewErrorContext("test", "op"))
			if info.Category != tt.category {
				t.Errorf("category = %s, want %s", info.Category, tt.category)
			}
			if info.Severity != tt.severity {
				t.Errorf("severity = %s, want %s", info.Severity, tt.severity)
			}
			if info.Strategy != tt.strategy {
				t.Errorf("strategy = %s, want %s", info.Strategy, tt.strategy)
			}
			if info.MaxRetries != tt.retries {
				t.Errorf("max retries = %d, want %d", info.MaxRetries, tt.retries)
			}
		})
	}
}

func TestClassify_MessageFallback(t *testing.T) {
	tests := []struct {
		msg      string
		category domain.Category
	}{
		{"operation timed out after 30s", domain.CategoryTimeout},
		{"401 Unauthorized", domain.CategoryAuthorization},
		{"invalid credentials supplied", domain.CategoryAuthentication},
		{"access denied for user", domain.CategoryAuthorization},
		{"rate limit exceeded", domain.CategoryAPI},
		{"out of memory", domain.CategoryResource},
		{"connection reset by peer", domain.CategoryNetwork},
	}

	for _, tt := range tests {
		info := Classify(errors.New(tt.msg), domain.NewErrorContext("test", "op"))
		if info.Category != tt.category {
			t.Errorf("Classify(%q).Category = %s, want %s", tt.msg, info.Category, tt.category)
		}
	}
}

func TestClassify_UnauthorizedIsAuthorization(t *testing.T) {
	for _, msg := range []string{"server said: unauthorized", "403 Forbidden", "permission denied"} {
		info := Classify(errors.New(msg), domain.NewErrorContext("test", "op"))
		if info.Category != domain.CategoryAuthorization {
			t.Errorf("Classify(%q).Category = %s, want authorization", msg, info.Category)
		}
	}
}

func TestClassify_DiskPressureDegrades(t *testing.T) {
	info := Classify(errors.New("write failed: disk full"), domain.NewErrorContext("test", "op"))
	if info.Category != domain.CategoryResource {
		t.Errorf("category = %s, want resource", info.Category)
	}
	if info.Severity != domain.SeverityHigh {
		t.Errorf("severity = %s, want high", info.Severity)
	}
	if info.Strategy != domain.StrategyDegrade {
		t.Errorf("strategy = %s, want degrade", info.Strategy)
	}
	if !info.Recoverable || info.MaxRetries != 1 {
		t.Errorf("recoverable = %t retries = %d, want recoverable with 1 retry", info.Recoverable, info.MaxRetries)
	}
}

func TestClassify_MemoryErrorsAreCritical(t *testing.T) {
	info := Classify(errors.New("cannot allocate memory"), domain.NewErrorContext("test", "op"))
	if info.Severity != domain.SeverityCritical {
		t.Errorf("severity = %s, want critical", info.Severity)
	}
	if info.Recoverable {
		t.Error("critical errors must not be recoverable")
	}
	if info.MaxRetries != 0 {
		t.Errorf("max retries = %d, want 0", info.MaxRetries)
	}
}

func TestClassify_UnknownDefaults(t *testing.T) {
	info := Classify(errors.New("something odd happened"), domain.NewErrorContext("test", "op"))
	if info.Category != domain.CategoryUnknown {
		t.Errorf("category = %s, want unknown", info.Category)
	}
	if info.Severity != domain.SeverityMedium {
		t.Errorf("severity = %s, want medium", info.Severity)
	}
	if info.Strategy != domain.StrategyRetry {
		t.Errorf("strategy = %s, want retry", info.Strategy)
	}
	if info.MaxRetries != 2 {
		t.Errorf("max retries = %d, want 2", info.MaxRetries)
	}
}

func TestClassify_Totality(t *testing.T) {
	validStrategies := map[domain.Strategy]bool{
		domain.StrategyRetry:        true,
		domain.StrategyFallback:     true,
		domain.StrategyDegrade:      true,
		domain.StrategyFailFast:     true,
		domain.StrategyCircuitBreak: true,
		domain.StrategyEscalate:     true,
	}

	errs := []error{
		nil,
		errors.New(""),
		fmt.Errorf("wrapped: %w", ConnectionError{Msg: "x"}),
		context.DeadlineExceeded,
		ValidationError{},
		errors.New("☃ unicode noise \x00"),
	}
	for _, err := range errs {
		info := Classify(err, domain.NewErrorContext("test", "op"))
		if !validStrategies[info.Strategy] {
			t.Errorf("Classify(%v) produced invalid strategy %q", err, info.Strategy)
		}
		if info.Category == "" {
			t.Errorf("Classify(%v) produced empty category", err)
		}
	}
}

func TestClassify_WrappedErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("calling pricing api: %w", TimeoutError{Msg: "deadline exceeded"})
	info := Classify(err, domain.NewErrorContext("test", "op"))
	if info.Category != domain.CategoryTimeout {
		t.Errorf("category = %s, want timeout", info.Category)
	}
}

func TestClassify_RecoverabilityConsistency(t *testing.T) {
	nonRecoverable := []domain.Category{
		domain.CategoryAuthentication,
		domain.CategoryAuthorization,
		domain.CategoryValidation,
		domain.CategoryConfiguration,
	}

	errs := []error{
		AuthenticationError{Msg: "x"},
		AuthorizationError{Msg: "x"},
		ValidationError{Msg: "x"},
		ConfigurationError{Msg: "x"},
		errors.New("invalid credentials supplied"),
		errors.New("permission denied"),
	}
	for _, err := range errs {
		info := Classify(err, domain.NewErrorContext("test", "op"))

		found := false
		for _, c := range nonRecoverable {
			if info.Category == c {
				found = true
			}
		}
		if !found {
			t.Fatalf("Classify(%v) category = %s, expected a non-recoverable category", err, info.Category)
		}
		if info.Recoverable {
			t.Errorf("Classify(%v) recoverable = true, want false", err)
		}
		if info.MaxRetries != 0 {
			t.Errorf("Classify(%v) max retries = %d, want 0", err, info.MaxRetries)
		}
	}
}
