// Package breaker implements the per-service retry/backoff and circuit
// breaker collaborator consumed by the error handler façade.
package breaker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/vietddude/sentinel/internal/resilience"
)

// Circuit states.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// DefaultConfig is applied for fields left zero at registration.
var DefaultConfig = resilience.ServiceConfig{
	FailureThreshold: 5,
	RecoveryTimeout:  60 * time.Second,
	MaxRetries:       3,
	BaseDelay:        1 * time.Second,
	MaxDelay:         30 * time.Second,
}

type circuit struct {
	cfg      resilience.ServiceConfig
	state    string
	failures int
	openedAt time.Time
}

// Registry tracks one circuit per registered service and runs operations
// through bounded exponential backoff. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	circuits map[string]*circuit
	log      *slog.Logger
	now      func() time.Time
}

// NewRegistry creates an empty breaker registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		circuits: make(map[string]*circuit),
		log:      log,
		now:      time.Now,
	}
}

// Register configures the breaker and retry policy for a service. Zero
// fields fall back to DefaultConfig. Re-registering resets the circuit.
func (r *Registry) Register(service string, cfg resilience.ServiceConfig) {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig.FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultConfig.RecoveryTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultConfig.MaxDelay
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.circuits[service] = &circuit{cfg: cfg, state: StateClosed}
}

// Health returns the breaker view of one service.
func (r *Registry) Health(service string) (resilience.ServiceHealth, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.circuits[service]
	if !ok {
		return resilience.ServiceHealth{}, false
	}
	return resilience.ServiceHealth{State: r.effectiveState(c), FailureCount: c.failures}, true
}

// HealthAll returns the breaker view of every registered service.
func (r *Registry) HealthAll() map[string]resilience.ServiceHealth {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]resilience.ServiceHealth, len(r.circuits))
	for name, c := range r.circuits {
		out[name] = resilience.ServiceHealth{State: r.effectiveState(c), FailureCount: c.failures}
	}
	return out
}

// effectiveState accounts for the recovery timeout having elapsed on an
// open circuit. Caller holds the lock.
func (r *Registry) effectiveState(c *circuit) string {
	if c.state == StateOpen && r.now().Sub(c.openedAt) >= c.cfg.RecoveryTimeout {
		return StateHalfOpen
	}
	return c.state
}

// Do runs op for a registered service through the circuit and retry policy.
// An open circuit short-circuits with CircuitOpenError; otherwise op is
// retried with exponential backoff up to the registered budget, and the
// circuit trips after FailureThreshold consecutive failed invocations.
func (r *Registry) Do(ctx context.Context, service string, op func(context.Context) error) error {
	r.mu.Lock()
	c, ok := r.circuits[service]
	if !ok {
		c = &circuit{cfg: DefaultConfig, state: StateClosed}
		r.circuits[service] = c
	}
	switch r.effectiveState(c) {
	case StateOpen:
		r.mu.Unlock()
		return resilience.CircuitOpenError{Service: service}
	case StateHalfOpen:
		c.state = StateHalfOpen
	}
	cfg := c.cfg
	r.mu.Unlock()

	backoff := retry.WithCappedDuration(cfg.MaxDelay, retry.NewExponential(cfg.BaseDelay))
	backoff = retry.WithMaxRetries(uint64(cfg.MaxRetries), backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		if c.state != StateClosed || c.failures > 0 {
			r.log.Info("Circuit recovered", "service", service)
		}
		c.state = StateClosed
		c.failures = 0
		return nil
	}

	c.failures++
	if c.state == StateHalfOpen || c.failures >= cfg.FailureThreshold {
		c.state = StateOpen
		c.openedAt = r.now()
		r.log.Warn("Circuit opened",
			"service", service,
			"failures", c.failures,
			"recovery_timeout", cfg.RecoveryTimeout,
		)
	}
	return err
}
