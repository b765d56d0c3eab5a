package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/sentinel/internal/infra/storage"
)

// Pruner deletes old persisted alerts and error events based on the
// configured retention policy.
type Pruner struct {
	retention time.Duration
	alertRepo storage.AlertRepository
	eventRepo storage.EventRepository
}

// NewPruner creates a new Pruner worker.
func NewPruner(
	retention time.Duration,
	alertRepo storage.AlertRepository,
	eventRepo storage.EventRepository,
) *Pruner {
	return &Pruner{
		retention: retention,
		alertRepo: alertRepo,
		eventRepo: eventRepo,
	}
}

// Start runs the pruner loop until the context is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check interval: 10% of retention, clamped to [1m, 1h]
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	if p.alertRepo != nil {
		if err := p.alertRepo.DeleteOlderThan(ctx, cutoff); err != nil {
			slog.Error("Failed to prune alerts", "error", err)
		}
	}
	if p.eventRepo != nil {
		if err := p.eventRepo.DeleteOlderThan(ctx, cutoff); err != nil {
			slog.Error("Failed to prune error events", "error", err)
		}
	}
}
