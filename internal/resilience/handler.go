package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// ServiceConfig mirrors the circuit breaker registration parameters for one
// external service.
type ServiceConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	BaseDelay        time.Duration `yaml:"base_delay"`
	MaxDelay         time.Duration `yaml:"max_delay"`
}

// ServiceHealth is the breaker collaborator's view of one service.
type ServiceHealth struct {
	State        string `json:"state"`
	FailureCount int    `json:"failure_count"`
}

// CircuitRegistry is the retry/backoff + circuit breaker collaborator.
type CircuitRegistry interface {
	Register(service string, cfg ServiceConfig)
	Health(service string) (ServiceHealth, bool)
	HealthAll() map[string]ServiceHealth
}

// MetricsReader exposes locally recorded error counters.
type MetricsReader interface {
	ErrorMetrics() map[string]int64
}

// Statistics combines breaker health with recorded error metrics.
type Statistics struct {
	ServiceHealth map[string]ServiceHealth `json:"service_health"`
	ErrorMetrics  map[string]int64         `json:"error_metrics"`
	Timestamp     time.Time                `json:"timestamp"`
}

// ExecuteOptions describe the operation wrapped by Execute.
type ExecuteOptions struct {
	Operation    string
	Component    string
	Agent        string
	Workflow     string
	Service      string
	FallbackData any
	Cache        StaleCache
}

// Handler is the façade over the dispatcher: a scoped-execution wrapper plus
// role-specific entry points for agents, API clients, and workflows.
type Handler struct {
	dispatcher *Dispatcher
	registry   CircuitRegistry
	metrics    MetricsReader
	log        *slog.Logger
}

// NewHandler creates the façade. registry and metrics may be nil.
func NewHandler(dispatcher *Dispatcher, registry CircuitRegistry, metrics MetricsReader, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{dispatcher: dispatcher, registry: registry, metrics: metrics, log: log}
}

// Execute runs op and, on failure, dispatches recovery. Recovered data is
// returned transparently; unrecovered failures return the original error
// wrapped with the error id and strategy, so errors.Is/As still match.
func (h *Handler) Execute(ctx context.Context, op func(context.Context) (any, error), opts ExecuteOptions) (any, error) {
	data, err := op(ctx)
	if err == nil {
		return data, nil
	}

	ectx := domain.NewErrorContext(opts.Component, opts.Operation)
	ectx.AgentName = opts.Agent
	ectx.WorkflowID = opts.Workflow

	result := h.dispatcher.Handle(ctx, err, ectx, Options{
		FallbackData: opts.FallbackData,
		Service:      opts.Service,
		Cache:        opts.Cache,
	})
	if result.Success {
		return result.Data, nil
	}
	return nil, fmt.Errorf("%w [error_id=%s strategy=%s]", err, ectx.ErrorID, result.StrategyUsed)
}

// HandleAgentError handles a failure inside a named agent.
func (h *Handler) HandleAgentError(ctx context.Context, agentName, operation string, err error, workflowID string, fallbackData any) domain.RecoveryResult {
	ectx := domain.NewErrorContext("agent", operation)
	ectx.AgentName = agentName
	ectx.WorkflowID = workflowID
	return h.dispatcher.Handle(ctx, err, ectx, Options{
		FallbackData: fallbackData,
		Service:      agentName,
	})
}

// HandleAPIError handles a failure calling an external service.
func (h *Handler) HandleAPIError(ctx context.Context, service, operation string, err error, fallbackData any, cache StaleCache) domain.RecoveryResult {
	ectx := domain.NewErrorContext("api_client", operation)
	ectx.Additional = map[string]any{"service": service}
	return h.dispatcher.Handle(ctx, err, ectx, Options{
		FallbackData: fallbackData,
		Service:      service,
		Cache:        cache,
	})
}

// HandleWorkflowError handles a failure in a workflow step.
func (h *Handler) HandleWorkflowError(ctx context.Context, workflowID, stepID, operation string, err error, agentName string) domain.RecoveryResult {
	ectx := domain.NewErrorContext("workflow", operation)
	ectx.WorkflowID = workflowID
	ectx.StepID = stepID
	ectx.AgentName = agentName
	return h.dispatcher.Handle(ctx, err, ectx, Options{Service: workflowID})
}

// ConfigureService registers breaker and retry policy for a service.
func (h *Handler) ConfigureService(service string, cfg ServiceConfig) {
	if h.registry == nil {
		return
	}
	h.registry.Register(service, cfg)
	h.log.Info("Configured error handling for service",
		"service", service,
		"failure_threshold", cfg.FailureThreshold,
		"max_retries", cfg.MaxRetries,
	)
}

// Statistics returns breaker health plus recorded error metrics.
func (h *Handler) Statistics() Statistics {
	stats := Statistics{
		ServiceHealth: map[string]ServiceHealth{},
		ErrorMetrics:  map[string]int64{},
		Timestamp:     time.Now(),
	}
	if h.registry != nil {
		stats.ServiceHealth = h.registry.HealthAll()
	}
	if h.metrics != nil {
		stats.ErrorMetrics = h.metrics.ErrorMetrics()
	}
	return stats
}
