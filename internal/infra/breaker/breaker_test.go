package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/resilience"
)

func fastConfig(threshold int) resilience.ServiceConfig {
	return resilience.ServiceConfig{
		FailureThreshold: threshold,
		RecoveryTimeout:  time.Minute,
		MaxRetries:       1,
		BaseDelay:        time.Millisecond,
		MaxDelay:         2 * time.Millisecond,
	}
}

func TestRegister_AppliesDefaults(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("pricing", resilience.ServiceConfig{})

	r.mu.Lock()
	cfg := r.circuits["pricing"].cfg
	r.mu.Unlock()
	if cfg != DefaultConfig {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("pricing", fastConfig(5))

	calls := 0
	err := r.Do(context.Background(), "pricing", func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	h, ok := r.Health("pricing")
	if !ok || h.State != StateClosed || h.FailureCount != 0 {
		t.Errorf("health = %+v, want closed with zero failures", h)
	}
}

func TestDo_TripsAfterConsecutiveFailures(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("pricing", fastConfig(2))
	fail := func(context.Context) error { return errors.New("down") }

	for i := 0; i < 2; i++ {
		if err := r.Do(context.Background(), "pricing", fail); err == nil {
			t.Fatal("expected failure")
		}
	}

	h, _ := r.Health("pricing")
	if h.State != StateOpen {
		t.Fatalf("state = %s, want open", h.State)
	}

	// While open the operation is never invoked.
	called := false
	err := r.Do(context.Background(), "pricing", func(context.Context) error {
		called = true
		return nil
	})
	var open resilience.CircuitOpenError
	if !errors.As(err, &open) || open.Service != "pricing" {
		t.Errorf("error = %v, want CircuitOpenError for pricing", err)
	}
	if called {
		t.Error("operation ran through an open circuit")
	}
}

func TestDo_HalfOpenRecovers(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("pricing", fastConfig(1))
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	fail := func(context.Context) error { return errors.New("down") }
	if err := r.Do(context.Background(), "pricing", fail); err == nil {
		t.Fatal("expected failure")
	}
	if h, _ := r.Health("pricing"); h.State != StateOpen {
		t.Fatalf("state = %s, want open", h.State)
	}

	// Past the recovery timeout the circuit probes half-open and a success
	// closes it.
	r.now = func() time.Time { return base.Add(2 * time.Minute) }
	if h, _ := r.Health("pricing"); h.State != StateHalfOpen {
		t.Fatalf("state = %s, want half_open", h.State)
	}
	if err := r.Do(context.Background(), "pricing", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("half-open probe failed: %v", err)
	}
	if h, _ := r.Health("pricing"); h.State != StateClosed || h.FailureCount != 0 {
		t.Errorf("health after recovery = %+v, want closed", h)
	}
}

func TestDo_HalfOpenFailureReopens(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("pricing", fastConfig(3))
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	fail := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 3; i++ {
		r.Do(context.Background(), "pricing", fail)
	}
	if h, _ := r.Health("pricing"); h.State != StateOpen {
		t.Fatalf("state = %s, want open", h.State)
	}

	// A failed half-open probe reopens immediately, before the threshold.
	r.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := r.Do(context.Background(), "pricing", fail); err == nil {
		t.Fatal("expected probe failure")
	}
	if h, _ := r.Health("pricing"); h.State != StateOpen {
		t.Errorf("state = %s, want open after failed probe", h.State)
	}
}

func TestDo_UnregisteredServiceGetsDefaults(t *testing.T) {
	r := NewRegistry(nil)

	err := r.Do(context.Background(), "adhoc", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.Health("adhoc"); !ok {
		t.Error("ad hoc service not tracked after Do")
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("a", fastConfig(2))
	r.Register("b", fastConfig(2))

	all := r.HealthAll()
	if len(all) != 2 {
		t.Errorf("tracked services = %d, want 2", len(all))
	}
	for name, h := range all {
		if h.State != StateClosed {
			t.Errorf("%s state = %s, want closed", name, h.State)
		}
	}
}
