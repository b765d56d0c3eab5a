// Package storage defines the persistence interfaces for alerts and error
// events, with PostgreSQL and in-memory implementations in subpackages.
package storage

import (
	"context"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// EventRepository journals handled error events.
type EventRepository interface {
	// Add persists one event.
	Add(ctx context.Context, e *domain.ErrorEvent) error

	// Recent returns the newest events, newest first. Empty service means
	// all services.
	Recent(ctx context.Context, service string, limit int) ([]*domain.ErrorEvent, error)

	// Count returns the number of stored events for a service.
	Count(ctx context.Context, service string) (int, error)

	// DeleteOlderThan removes events recorded before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}

// AlertRepository journals fired alerts and their lifecycle transitions.
type AlertRepository interface {
	// Add persists a newly fired alert.
	Add(ctx context.Context, a *domain.Alert) error

	// SetAcknowledged marks an alert acknowledged.
	SetAcknowledged(ctx context.Context, id string) error

	// SetResolved marks an alert resolved.
	SetResolved(ctx context.Context, id string) error

	// Active returns unresolved alerts, newest first.
	Active(ctx context.Context) ([]*domain.Alert, error)

	// History returns the newest alerts regardless of state, newest first.
	History(ctx context.Context, limit int) ([]*domain.Alert, error)

	// DeleteOlderThan removes alerts fired before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}
