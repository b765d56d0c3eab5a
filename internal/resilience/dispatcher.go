package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// StaleCache serves previously cached payloads for fallback recovery, even
// past their freshness TTL.
type StaleCache interface {
	GetStaleData(ctx context.Context, operation string) (any, bool)
}

// ErrorSink records classified errors with the telemetry collaborator.
type ErrorSink interface {
	RecordError(info domain.ErrorInfo)
}

// Recorder receives every handled (info, result) pair for monitoring.
type Recorder interface {
	Record(info domain.ErrorInfo, result *domain.RecoveryResult, service string)
}

// Options tune a single Handle invocation.
type Options struct {
	// FallbackData, when set, is returned verbatim by the FALLBACK strategy.
	FallbackData any
	// Service attributes the resulting error event to a named service.
	Service string
	// Cache overrides the dispatcher-level stale cache for this call.
	Cache StaleCache
}

// Dispatcher classifies errors and executes the selected recovery strategy.
// It is stateless and safe for concurrent use.
type Dispatcher struct {
	cache     StaleCache
	telemetry ErrorSink
	recorder  Recorder
	log       *slog.Logger
}

// NewDispatcher creates a dispatcher. cache, telemetry, and recorder may be
// nil; missing collaborators disable the corresponding side effect.
func NewDispatcher(cache StaleCache, telemetry ErrorSink, recorder Recorder, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{cache: cache, telemetry: telemetry, recorder: recorder, log: log}
}

// Handle classifies err and runs exactly one strategy handler. The three
// side effects (log, error metric, event record) run on every invocation,
// whatever the strategy outcome.
func (d *Dispatcher) Handle(ctx context.Context, err error, ectx domain.ErrorContext, opts Options) domain.RecoveryResult {
	start := time.Now()
	info := Classify(err, ectx)

	d.logError(info)
	if d.telemetry != nil {
		d.telemetry.RecordError(info)
	}

	var result domain.RecoveryResult
	switch info.Strategy {
	case domain.StrategyRetry:
		result = d.retry(info)
	case domain.StrategyFallback:
		result = d.fallback(ctx, info, opts)
	case domain.StrategyDegrade:
		result = d.degrade(info)
	case domain.StrategyCircuitBreak:
		// The breaker-open condition arrives as input; recovery here is
		// the same fallback chain.
		result = d.fallback(ctx, info, opts)
		result.StrategyUsed = domain.StrategyCircuitBreak
	case domain.StrategyEscalate:
		result = d.escalate(info)
	default:
		result = d.failFast(info)
	}

	result.Info = &info
	result.RecoveryTime = time.Since(start)

	if d.recorder != nil {
		d.recorder.Record(info, &result, opts.Service)
	}
	return result
}

// retry does not loop; it signals the caller (or the breaker collaborator)
// to re-invoke with backoff, keeping the dispatcher side-effect-free.
func (d *Dispatcher) retry(info domain.ErrorInfo) domain.RecoveryResult {
	return domain.RecoveryResult{
		Success:      false,
		StrategyUsed: domain.StrategyRetry,
		Warnings: []string{
			fmt.Sprintf("Retry recovery indicated: up to %d attempts with increasing delay", info.MaxRetries),
		},
	}
}

func (d *Dispatcher) fallback(ctx context.Context, info domain.ErrorInfo, opts Options) domain.RecoveryResult {
	// 1. Caller-supplied fallback data wins.
	if opts.FallbackData != nil {
		return domain.RecoveryResult{
			Success:      true,
			StrategyUsed: domain.StrategyFallback,
			Data:         opts.FallbackData,
			FallbackUsed: true,
		}
	}

	// 2. Stale cached payload for this operation.
	cache := opts.Cache
	if cache == nil {
		cache = d.cache
	}
	if cache != nil {
		if data, ok := cache.GetStaleData(ctx, info.Context.Operation); ok {
			return domain.RecoveryResult{
				Success:      true,
				StrategyUsed: domain.StrategyFallback,
				Data:         data,
				FallbackUsed: true,
				DegradedMode: true,
				Warnings:     []string{"Using stale cached data"},
			}
		}
	}

	// 3. Synthesized minimal payload from the operation name.
	return domain.RecoveryResult{
		Success:      true,
		StrategyUsed: domain.StrategyFallback,
		Data:         synthesizeFallback(info.Context.Operation),
		FallbackUsed: true,
		DegradedMode: true,
		Warnings:     []string{"Using synthesized fallback data"},
	}
}

func (d *Dispatcher) degrade(info domain.ErrorInfo) domain.RecoveryResult {
	return domain.RecoveryResult{
		Success:      true,
		StrategyUsed: domain.StrategyDegrade,
		Data: map[string]any{
			"degraded_mode": true,
			"limitations": []string{
				"Reduced data freshness",
				"Limited recommendation depth",
				"Some optional fields unavailable",
			},
		},
		DegradedMode: true,
		Warnings:     []string{"Operating in degraded mode with reduced functionality"},
	}
}

func (d *Dispatcher) failFast(info domain.ErrorInfo) domain.RecoveryResult {
	return domain.RecoveryResult{
		Success:      false,
		StrategyUsed: domain.StrategyFailFast,
		Warnings:     []string{fmt.Sprintf("Failing fast on %s", info.Category)},
	}
}

func (d *Dispatcher) escalate(info domain.ErrorInfo) domain.RecoveryResult {
	d.log.Error("Error escalated for manual intervention",
		"error_id", info.Context.ErrorID,
		"error_type", info.ErrorType,
		"component", info.Context.Component,
		"operation", info.Context.Operation,
		"escalate", true,
	)
	return domain.RecoveryResult{
		Success:      false,
		StrategyUsed: domain.StrategyEscalate,
		Warnings:     []string{"Error escalated for manual intervention"},
	}
}

// synthesizeFallback derives a canned minimal payload from the operation
// name so downstream consumers keep a usable shape.
func synthesizeFallback(operation string) any {
	op := strings.ToLower(operation)
	switch {
	case strings.Contains(op, "pricing"):
		return map[string]any{
			"pricing_data":  []any{},
			"currency":      "USD",
			"fallback_mode": true,
		}
	case strings.Contains(op, "compute"), strings.Contains(op, "instance"):
		return map[string]any{
			"instances":     []any{},
			"regions":       []any{},
			"fallback_mode": true,
		}
	case strings.Contains(op, "recommendation"):
		return map[string]any{
			"recommendations": []any{},
			"confidence":      0.0,
			"fallback_mode":   true,
		}
	default:
		return map[string]any{
			"data":          nil,
			"fallback_mode": true,
		}
	}
}

func (d *Dispatcher) logError(info domain.ErrorInfo) {
	attrs := []any{
		"error_id", info.Context.ErrorID,
		"error_type", info.ErrorType,
		"category", info.Category,
		"severity", info.Severity,
		"strategy", info.Strategy,
		"component", info.Context.Component,
		"operation", info.Context.Operation,
	}
	if info.Context.AgentName != "" {
		attrs = append(attrs, "agent", info.Context.AgentName)
	}
	if info.Context.WorkflowID != "" {
		attrs = append(attrs, "workflow", info.Context.WorkflowID)
	}

	switch info.Severity {
	case domain.SeverityLow:
		d.log.Debug(info.Message, attrs...)
	case domain.SeverityMedium:
		d.log.Warn(info.Message, attrs...)
	default:
		d.log.Error(info.Message, attrs...)
	}
}
