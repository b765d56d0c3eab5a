package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/infra/storage"
)

// EventRecorder turns handled (ErrorInfo, RecoveryResult) pairs into
// timestamped events and feeds the aggregator. Persistence is best effort;
// the in-process window stays authoritative for all metrics.
type EventRecorder struct {
	window *EventWindow
	store  storage.EventRepository
	log    *slog.Logger
}

// NewEventRecorder creates a recorder. store may be nil.
func NewEventRecorder(window *EventWindow, store storage.EventRepository, log *slog.Logger) *EventRecorder {
	if log == nil {
		log = slog.Default()
	}
	return &EventRecorder{window: window, store: store, log: log}
}

// Record satisfies the dispatcher's Recorder contract.
func (r *EventRecorder) Record(info domain.ErrorInfo, result *domain.RecoveryResult, service string) {
	event := domain.ErrorEvent{
		Timestamp: time.Now(),
		Info:      info,
		Recovery:  result,
		Service:   service,
		Component: info.Context.Component,
	}
	r.window.Add(event)

	if r.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.Add(ctx, &event); err != nil {
			r.log.Warn("Failed to persist error event", "error", err, "error_id", info.Context.ErrorID)
		}
	}()
}
