package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type mockRegistry struct {
	mu         sync.Mutex
	registered map[string]ServiceConfig
	health     map[string]ServiceHealth
}

func (r *mockRegistry) Register(service string, cfg ServiceConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registered == nil {
		r.registered = map[string]ServiceConfig{}
	}
	r.registered[service] = cfg
}

func (r *mockRegistry) Health(service string) (ServiceHealth, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.health[service]
	return h, ok
}

func (r *mockRegistry) HealthAll() map[string]ServiceHealth {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ServiceHealth, len(r.health))
	for k, v := range r.health {
		out[k] = v
	}
	return out
}

type mockMetrics struct {
	counters map[string]int64
}

func (m *mockMetrics) ErrorMetrics() map[string]int64 { return m.counters }

func TestExecute_PassesThroughSuccess(t *testing.T) {
	h := NewHandler(NewDispatcher(nil, nil, nil, nil), nil, nil, nil)

	data, err := h.Execute(context.Background(), func(context.Context) (any, error) {
		return "payload", nil
	}, ExecuteOptions{Operation: "fetch", Component: "test"})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != "payload" {
		t.Errorf("data = %v, want payload", data)
	}
}

func TestExecute_ReturnsRecoveredData(t *testing.T) {
	h := NewHandler(NewDispatcher(nil, nil, nil, nil), nil, nil, nil)

	data, err := h.Execute(context.Background(), func(context.Context) (any, error) {
		return nil, DataError{Msg: "parse failure"}
	}, ExecuteOptions{
		Operation:    "fetch_pricing",
		Component:    "api_client",
		FallbackData: map[string]any{"cached": true},
	})

	if err != nil {
		t.Fatalf("recovered failure must not surface: %v", err)
	}
	payload, ok := data.(map[string]any)
	if !ok || payload["cached"] != true {
		t.Errorf("data = %v, want fallback payload", data)
	}
}

func TestExecute_WrapsUnrecoveredError(t *testing.T) {
	h := NewHandler(NewDispatcher(nil, nil, nil, nil), nil, nil, nil)
	original := ValidationError{Msg: "bad field"}

	_, err := h.Execute(context.Background(), func(context.Context) (any, error) {
		return nil, original
	}, ExecuteOptions{Operation: "validate", Component: "form"})

	if err == nil {
		t.Fatal("expected error")
	}
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Error("wrapped error lost the original type")
	}
	if !strings.Contains(err.Error(), "error_id=") || !strings.Contains(err.Error(), "strategy=fail_fast") {
		t.Errorf("error = %q, want id and strategy annotations", err)
	}
}

func TestHandleAPIError_AttributesService(t *testing.T) {
	recorder := &mockRecorder{}
	h := NewHandler(NewDispatcher(nil, nil, recorder, nil), nil, nil, nil)

	result := h.HandleAPIError(context.Background(), "pricing", "fetch_pricing",
		APIError{Service: "pricing", StatusCode: 502, Msg: "bad gateway"}, nil, nil)

	if result.Info == nil || result.Info.Context.Component != "api_client" {
		t.Errorf("component = %v, want api_client", result.Info)
	}
	if svc := result.Info.Context.Additional["service"]; svc != "pricing" {
		t.Errorf("service annotation = %v, want pricing", svc)
	}
	if len(recorder.service) != 1 || recorder.service[0] != "pricing" {
		t.Errorf("recorded services = %v, want [pricing]", recorder.service)
	}
}

func TestHandleWorkflowError_CarriesIdentifiers(t *testing.T) {
	h := NewHandler(NewDispatcher(nil, nil, nil, nil), nil, nil, nil)

	result := h.HandleWorkflowError(context.Background(), "wf-1", "step-2", "aggregate",
		TimeoutError{Msg: "timed out"}, "analyst")

	ectx := result.Info.Context
	if ectx.WorkflowID != "wf-1" || ectx.StepID != "step-2" || ectx.AgentName != "analyst" {
		t.Errorf("context = %+v, want workflow identifiers preserved", ectx)
	}
}

func TestConfigureServiceAndStatistics(t *testing.T) {
	registry := &mockRegistry{health: map[string]ServiceHealth{
		"pricing": {State: "open", FailureCount: 5},
	}}
	metrics := &mockMetrics{counters: map[string]int64{"network:high": 4}}
	h := NewHandler(NewDispatcher(nil, nil, nil, nil), registry, metrics, nil)

	cfg := ServiceConfig{FailureThreshold: 3, MaxRetries: 2}
	h.ConfigureService("pricing", cfg)

	if got := registry.registered["pricing"]; got != cfg {
		t.Errorf("registered config = %+v, want %+v", got, cfg)
	}

	stats := h.Statistics()
	if stats.ServiceHealth["pricing"].State != "open" {
		t.Errorf("service health = %+v", stats.ServiceHealth)
	}
	if stats.ErrorMetrics["network:high"] != 4 {
		t.Errorf("error metrics = %+v", stats.ErrorMetrics)
	}
	if stats.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestConfigureService_NilRegistryIsNoop(t *testing.T) {
	h := NewHandler(NewDispatcher(nil, nil, nil, nil), nil, nil, nil)
	h.ConfigureService("pricing", ServiceConfig{FailureThreshold: 3})

	stats := h.Statistics()
	if len(stats.ServiceHealth) != 0 {
		t.Errorf("service health = %+v, want empty", stats.ServiceHealth)
	}
}
