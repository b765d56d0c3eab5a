package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// AlertRepo implements storage.AlertRepository using PostgreSQL.
type AlertRepo struct {
	db *DB
}

// NewAlertRepo creates a new PostgreSQL alert repository.
func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{db: db}
}

type alertRow struct {
	ID           string    `db:"id"`
	RuleName     string    `db:"rule_name"`
	Level        string    `db:"level"`
	Message      string    `db:"message"`
	Timestamp    time.Time `db:"fired_at"`
	MetricValue  float64   `db:"metric_value"`
	Threshold    float64   `db:"threshold"`
	Acknowledged bool      `db:"acknowledged"`
	Resolved     bool      `db:"resolved"`
}

func (r alertRow) toDomain() *domain.Alert {
	return &domain.Alert{
		ID:           r.ID,
		RuleName:     r.RuleName,
		Level:        domain.AlertLevel(r.Level),
		Message:      r.Message,
		Timestamp:    r.Timestamp,
		MetricValue:  r.MetricValue,
		Threshold:    r.Threshold,
		Acknowledged: r.Acknowledged,
		Resolved:     r.Resolved,
	}
}

// Add persists a newly fired alert.
func (r *AlertRepo) Add(ctx context.Context, a *domain.Alert) error {
	query := `
		INSERT INTO alerts (id, rule_name, level, message, fired_at, metric_value, threshold, acknowledged, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		a.ID,
		a.RuleName,
		string(a.Level),
		a.Message,
		a.Timestamp,
		a.MetricValue,
		a.Threshold,
		a.Acknowledged,
		a.Resolved,
	)
	if err != nil {
		return fmt.Errorf("failed to add alert: %w", err)
	}
	return nil
}

// SetAcknowledged marks an alert acknowledged.
func (r *AlertRepo) SetAcknowledged(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE alerts SET acknowledged = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return nil
}

// SetResolved marks an alert resolved.
func (r *AlertRepo) SetResolved(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE alerts SET resolved = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	return nil
}

// Active returns unresolved alerts, newest first.
func (r *AlertRepo) Active(ctx context.Context) ([]*domain.Alert, error) {
	query := `
		SELECT id, rule_name, level, message, fired_at, metric_value, threshold, acknowledged, resolved
		FROM alerts
		WHERE resolved = FALSE
		ORDER BY fired_at DESC
	`
	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get active alerts: %w", err)
	}

	alerts := make([]*domain.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.toDomain())
	}
	return alerts, nil
}

// History returns the newest alerts regardless of state, newest first.
func (r *AlertRepo) History(ctx context.Context, limit int) ([]*domain.Alert, error) {
	query := `
		SELECT id, rule_name, level, message, fired_at, metric_value, threshold, acknowledged, resolved
		FROM alerts
		ORDER BY fired_at DESC
		LIMIT $1
	`
	if limit <= 0 {
		limit = 100
	}

	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get alert history: %w", err)
	}

	alerts := make([]*domain.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.toDomain())
	}
	return alerts, nil
}

// DeleteOlderThan removes alerts fired before cutoff.
func (r *AlertRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE fired_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune alerts: %w", err)
	}
	return nil
}
