package resilience

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// =============================================================================
// Mocks
// =============================================================================

type mockCache struct {
	mu   sync.Mutex
	data map[string]any
}

func (c *mockCache) GetStaleData(ctx context.Context, operation string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[operation]
	return v, ok
}

type mockSink struct {
	mu     sync.Mutex
	errors []domain.ErrorInfo
}

func (s *mockSink) RecordError(info domain.ErrorInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, info)
}

type mockRecorder struct {
	mu      sync.Mutex
	infos   []domain.ErrorInfo
	results []*domain.RecoveryResult
	service []string
}

func (r *mockRecorder) Record(info domain.ErrorInfo, result *domain.RecoveryResult, service string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, info)
	r.results = append(r.results, result)
	r.service = append(r.service, service)
}

func newTestDispatcher() (*Dispatcher, *mockSink, *mockRecorder) {
	sink := &mockSink{}
	recorder := &mockRecorder{}
	return NewDispatcher(nil, sink, recorder, nil), sink, recorder
}

// =============================================================================
// Strategy Tests
// =============================================================================

func TestHandle_RetrySignalsCaller(t *testing.T) {
	d, _, _ := newTestDispatcher()

	result := d.Handle(context.Background(), ConnectionError{Msg: "x"},
		domain.NewErrorContext("api_client", "fetch_pricing"), Options{})

	if result.Success {
		t.Error("retry strategy must not report success")
	}
	if result.StrategyUsed != domain.StrategyRetry {
		t.Errorf("strategy = %s, want retry", result.StrategyUsed)
	}
	if result.Info.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", result.Info.MaxRetries)
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "Retry recovery indicated") {
		t.Errorf("warnings = %v, want retry indication", result.Warnings)
	}
}

func TestHandle_CircuitBreakWithFallbackData(t *testing.T) {
	d, _, _ := newTestDispatcher()
	fallback := map[string]any{"cached": true}

	result := d.Handle(context.Background(), CircuitOpenError{Service: "pricing"},
		domain.NewErrorContext("api_client", "fetch_pricing"),
		Options{FallbackData: fallback, Service: "pricing"})

	if !result.Success {
		t.Fatal("expected success with fallback data")
	}
	if !result.FallbackUsed {
		t.Error("fallback_used = false, want true")
	}
	if result.StrategyUsed != domain.StrategyCircuitBreak {
		t.Errorf("strategy = %s, want circuit_break", result.StrategyUsed)
	}
	data, ok := result.Data.(map[string]any)
	if !ok || data["cached"] != true {
		t.Errorf("data = %v, want the caller-supplied payload", result.Data)
	}
}

func TestHandle_FallbackPrecedence(t *testing.T) {
	// Caller data must win over a populated cache.
	cache := &mockCache{data: map[string]any{"fetch_data": "stale"}}
	d := NewDispatcher(cache, nil, nil, nil)

	result := d.Handle(context.Background(), DataError{Msg: "parse failure"},
		domain.NewErrorContext("api_client", "fetch_data"),
		Options{FallbackData: "fresh-enough"})

	if result.Data != "fresh-enough" {
		t.Errorf("data = %v, want caller-supplied data", result.Data)
	}
	if result.DegradedMode {
		t.Error("caller-supplied fallback is not degraded mode")
	}
}

func TestHandle_FallbackUsesStaleCache(t *testing.T) {
	cache := &mockCache{data: map[string]any{"fetch_data": "stale-copy"}}
	d := NewDispatcher(cache, nil, nil, nil)

	result := d.Handle(context.Background(), DataError{Msg: "parse failure"},
		domain.NewErrorContext("api_client", "fetch_data"), Options{})

	if !result.Success || result.Data != "stale-copy" {
		t.Errorf("result = %+v, want stale cache hit", result)
	}
	if !result.DegradedMode {
		t.Error("stale cache data must be flagged degraded")
	}
}

func TestHandle_FallbackSynthesizesByOperation(t *testing.T) {
	d, _, _ := newTestDispatcher()

	tests := []struct {
		operation string
		key       string
	}{
		{"fetch_pricing", "pricing_data"},
		{"list_compute_options", "instances"},
		{"generate_recommendation", "recommendations"},
		{"misc_op", "data"},
	}
	for _, tt := range tests {
		result := d.Handle(context.Background(), DataError{Msg: "x"},
			domain.NewErrorContext("api_client", tt.operation), Options{})
		if !result.Success || !result.DegradedMode {
			t.Fatalf("%s: expected degraded synthesized success, got %+v", tt.operation, result)
		}
		payload, ok := result.Data.(map[string]any)
		if !ok {
			t.Fatalf("%s: payload type %T", tt.operation, result.Data)
		}
		if _, ok := payload[tt.key]; !ok {
			t.Errorf("%s: payload missing %q: %v", tt.operation, tt.key, payload)
		}
		if payload["fallback_mode"] != true {
			t.Errorf("%s: payload not marked fallback_mode", tt.operation)
		}
	}
}

func TestHandle_DegradeAlwaysSucceeds(t *testing.T) {
	d, _, _ := newTestDispatcher()

	result := d.Handle(context.Background(), ResourceExhaustedError{Msg: "disk full"},
		domain.NewErrorContext("agent", "analyze"), Options{})

	if !result.Success || !result.DegradedMode {
		t.Errorf("result = %+v, want degraded success", result)
	}
	payload := result.Data.(map[string]any)
	if _, ok := payload["limitations"]; !ok {
		t.Error("degraded payload must carry limitations")
	}
}

func TestHandle_FailFast(t *testing.T) {
	d, _, _ := newTestDispatcher()

	result := d.Handle(context.Background(), ValidationError{Msg: "bad field"},
		domain.NewErrorContext("form", "validate"), Options{})

	if result.Success {
		t.Error("fail-fast must not succeed")
	}
	if result.StrategyUsed != domain.StrategyFailFast {
		t.Errorf("strategy = %s, want fail_fast", result.StrategyUsed)
	}
}

func TestHandle_Escalate(t *testing.T) {
	d, _, _ := newTestDispatcher()

	result := d.Handle(context.Background(), SystemError{},
		domain.NewErrorContext("core", "boot"), Options{})

	if result.Success {
		t.Error("escalation must not succeed")
	}
	if result.StrategyUsed != domain.StrategyEscalate {
		t.Errorf("strategy = %s, want escalate", result.StrategyUsed)
	}
}

// SystemError stands in for an unexported platform failure kind.
type SystemError struct{}

func (SystemError) Error() string { return "unexpected internal state" }

func TestHandle_SideEffectsAlwaysRun(t *testing.T) {
	d, sink, recorder := newTestDispatcher()

	// A failing strategy still records metric and event exactly once.
	d.Handle(context.Background(), ValidationError{Msg: "nope"},
		domain.NewErrorContext("form", "validate"), Options{Service: "forms"})

	if len(sink.errors) != 1 {
		t.Errorf("error metrics recorded %d times, want 1", len(sink.errors))
	}
	if len(recorder.infos) != 1 {
		t.Fatalf("events recorded %d times, want 1", len(recorder.infos))
	}
	if recorder.service[0] != "forms" {
		t.Errorf("service = %q, want forms", recorder.service[0])
	}
	if recorder.results[0] == nil || recorder.results[0].Success {
		t.Error("recorded result must be the failed recovery")
	}
}
