package telemetry

import (
	"testing"

	"github.com/vietddude/sentinel/internal/core/domain"
)

func TestSink_ErrorMetrics(t *testing.T) {
	s := NewSink()

	s.RecordError(domain.ErrorInfo{
		ErrorType:   "ConnectionError",
		Category:    domain.CategoryNetwork,
		Severity:    domain.SeverityHigh,
		Recoverable: true,
	})
	s.RecordError(domain.ErrorInfo{
		ErrorType: "ValidationError",
		Category:  domain.CategoryValidation,
		Severity:  domain.SeverityLow,
	})

	m := s.ErrorMetrics()
	if m["errors_total"] != 2 {
		t.Errorf("errors_total = %d, want 2", m["errors_total"])
	}
	if m["errors_network_error"] != 1 || m["errors_validation_error"] != 1 {
		t.Errorf("per-category counters = %v", m)
	}
	if m["errors_non_recoverable"] != 1 {
		t.Errorf("errors_non_recoverable = %d, want 1", m["errors_non_recoverable"])
	}
}

func TestSink_RecordAlert(t *testing.T) {
	s := NewSink()

	s.RecordAlert(domain.Alert{RuleName: "high_error_rate", Level: domain.AlertLevelWarning})
	s.RecordAlert(domain.Alert{RuleName: "high_error_rate", Level: domain.AlertLevelWarning})

	m := s.ErrorMetrics()
	if m["alerts_total"] != 2 {
		t.Errorf("alerts_total = %d, want 2", m["alerts_total"])
	}
	if m["alerts_warning"] != 2 {
		t.Errorf("alerts_warning = %d, want 2", m["alerts_warning"])
	}
}

func TestSink_ErrorMetricsReturnsCopy(t *testing.T) {
	s := NewSink()
	s.RecordError(domain.ErrorInfo{Category: domain.CategoryNetwork, Severity: domain.SeverityHigh})

	m := s.ErrorMetrics()
	m["errors_total"] = 99

	if got := s.ErrorMetrics()["errors_total"]; got != 1 {
		t.Errorf("errors_total = %d, want 1 after caller mutation", got)
	}
}
