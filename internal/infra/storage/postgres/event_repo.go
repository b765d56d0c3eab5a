package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// EventRepo implements storage.EventRepository using PostgreSQL.
type EventRepo struct {
	db *DB
}

// NewEventRepo creates a new PostgreSQL error event repository.
func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

type eventRow struct {
	Timestamp       time.Time     `db:"occurred_at"`
	ErrorID         string        `db:"error_id"`
	Service         string        `db:"service"`
	Component       string        `db:"component"`
	Operation       string        `db:"operation"`
	ErrorType       string        `db:"error_type"`
	Category        string        `db:"category"`
	Severity        string        `db:"severity"`
	Strategy        string        `db:"strategy"`
	Message         string        `db:"message"`
	RecoverySuccess sql.NullBool  `db:"recovery_success"`
	RecoveryTimeMS  sql.NullInt64 `db:"recovery_time_ms"`
	DegradedMode    sql.NullBool  `db:"degraded_mode"`
}

func (r eventRow) toDomain() *domain.ErrorEvent {
	e := &domain.ErrorEvent{
		Timestamp: r.Timestamp,
		Service:   r.Service,
		Component: r.Component,
		Info: domain.ErrorInfo{
			ErrorType: r.ErrorType,
			Message:   r.Message,
			Category:  domain.Category(r.Category),
			Severity:  domain.Severity(r.Severity),
			Strategy:  domain.Strategy(r.Strategy),
			Context: domain.ErrorContext{
				ErrorID:   r.ErrorID,
				Timestamp: r.Timestamp,
				Operation: r.Operation,
				Component: r.Component,
			},
		},
	}
	if r.RecoverySuccess.Valid {
		e.Recovery = &domain.RecoveryResult{
			Success:      r.RecoverySuccess.Bool,
			StrategyUsed: domain.Strategy(r.Strategy),
			DegradedMode: r.DegradedMode.Valid && r.DegradedMode.Bool,
			RecoveryTime: time.Duration(r.RecoveryTimeMS.Int64) * time.Millisecond,
		}
	}
	return e
}

// Add persists one error event.
func (r *EventRepo) Add(ctx context.Context, e *domain.ErrorEvent) error {
	query := `
		INSERT INTO error_events (occurred_at, error_id, service, component, operation,
			error_type, category, severity, strategy, message,
			recovery_success, recovery_time_ms, degraded_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	var recoverySuccess sql.NullBool
	var recoveryTimeMS sql.NullInt64
	var degradedMode sql.NullBool
	if e.Recovery != nil {
		recoverySuccess = sql.NullBool{Bool: e.Recovery.Success, Valid: true}
		recoveryTimeMS = sql.NullInt64{Int64: e.Recovery.RecoveryTime.Milliseconds(), Valid: true}
		degradedMode = sql.NullBool{Bool: e.Recovery.DegradedMode, Valid: true}
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		e.Timestamp,
		e.Info.Context.ErrorID,
		e.Service,
		e.Component,
		e.Info.Context.Operation,
		e.Info.ErrorType,
		string(e.Info.Category),
		string(e.Info.Severity),
		string(e.Info.Strategy),
		e.Info.Message,
		recoverySuccess,
		recoveryTimeMS,
		degradedMode,
	)
	if err != nil {
		return fmt.Errorf("failed to add error event: %w", err)
	}
	return nil
}

// Recent returns the newest events, newest first. Empty service means all.
func (r *EventRepo) Recent(ctx context.Context, service string, limit int) ([]*domain.ErrorEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT occurred_at, error_id, service, component, operation,
			error_type, category, severity, strategy, message,
			recovery_success, recovery_time_ms, degraded_mode
		FROM error_events
		WHERE ($1 = '' OR service = $1)
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, service, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}

	events := make([]*domain.ErrorEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toDomain())
	}
	return events, nil
}

// Count returns the number of stored events for a service.
func (r *EventRepo) Count(ctx context.Context, service string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM error_events WHERE ($1 = '' OR service = $1)`
	if err := r.db.GetContext(ctx, &count, query, service); err != nil {
		return 0, fmt.Errorf("failed to count error events: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes events recorded before cutoff.
func (r *EventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM error_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune error events: %w", err)
	}
	return nil
}
