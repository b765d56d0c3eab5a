// Package memory provides in-memory repository implementations for dev mode
// and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Storage backs the in-memory repositories.
type Storage struct {
	mu     sync.RWMutex
	events []*domain.ErrorEvent
	alerts []*domain.Alert
}

// NewStorage creates empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{}
}

// -----------------------------------------------------------------------------
// Event Repository
// -----------------------------------------------------------------------------

type EventRepo struct {
	store *Storage
}

func NewEventRepo(store *Storage) *EventRepo {
	return &EventRepo{store: store}
}

func (r *EventRepo) Add(ctx context.Context, e *domain.ErrorEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *e
	r.store.events = append(r.store.events, &cp)
	return nil
}

func (r *EventRepo) Recent(ctx context.Context, service string, limit int) ([]*domain.ErrorEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}

	var out []*domain.ErrorEvent
	for i := len(r.store.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.store.events[i]
		if service == "" || e.Service == service {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *EventRepo) Count(ctx context.Context, service string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, e := range r.store.events {
		if service == "" || e.Service == service {
			count++
		}
	}
	return count, nil
}

func (r *EventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.events[:0]
	for _, e := range r.store.events {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	r.store.events = kept
	return nil
}

// -----------------------------------------------------------------------------
// Alert Repository
// -----------------------------------------------------------------------------

type AlertRepo struct {
	store *Storage
}

func NewAlertRepo(store *Storage) *AlertRepo {
	return &AlertRepo{store: store}
}

func (r *AlertRepo) Add(ctx context.Context, a *domain.Alert) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *a
	r.store.alerts = append(r.store.alerts, &cp)
	return nil
}

func (r *AlertRepo) SetAcknowledged(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.alerts {
		if a.ID == id {
			a.Acknowledged = true
		}
	}
	return nil
}

func (r *AlertRepo) SetResolved(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.alerts {
		if a.ID == id {
			a.Resolved = true
		}
	}
	return nil
}

func (r *AlertRepo) Active(ctx context.Context) ([]*domain.Alert, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*domain.Alert
	for i := len(r.store.alerts) - 1; i >= 0; i-- {
		if !r.store.alerts[i].Resolved {
			out = append(out, r.store.alerts[i])
		}
	}
	return out, nil
}

func (r *AlertRepo) History(ctx context.Context, limit int) ([]*domain.Alert, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}

	var out []*domain.Alert
	for i := len(r.store.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.store.alerts[i])
	}
	return out, nil
}

func (r *AlertRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.alerts[:0]
	for _, a := range r.store.alerts {
		if !a.Timestamp.Before(cutoff) {
			kept = append(kept, a)
		}
	}
	r.store.alerts = kept
	return nil
}
