package monitoring

import (
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// DefaultRules returns the rule set the engine ships with. A zero Window
// inherits the aggregator's reporting window. Thresholds for low-is-bad
// metrics (recovery rate, availability) are expressed on the inverted scale
// so that exceeding a threshold always means worse.
func DefaultRules() []domain.AlertRule {
	return []domain.AlertRule{
		{
			Name:      "high_error_rate",
			Metric:    domain.MetricErrorRate,
			Threshold: 5.0, // errors/min
			Level:     domain.AlertLevelWarning,
			Cooldown:  5 * time.Minute,
			Enabled:   true,
		},
		{
			Name:      "critical_error_rate",
			Metric:    domain.MetricErrorRate,
			Threshold: 10.0,
			Level:     domain.AlertLevelCritical,
			Cooldown:  2 * time.Minute,
			Enabled:   true,
		},
		{
			Name:      "low_recovery_rate",
			Metric:    domain.MetricRecoveryRate,
			Threshold: 0.5, // inverted: fires when fewer than 50% recover
			Level:     domain.AlertLevelError,
			Cooldown:  10 * time.Minute,
			Enabled:   true,
		},
		{
			Name:      "high_recovery_time",
			Metric:    domain.MetricMeanTimeToRecovery,
			Threshold: 30.0, // seconds
			Level:     domain.AlertLevelWarning,
			Cooldown:  10 * time.Minute,
			Enabled:   true,
		},
		{
			Name:      "low_availability",
			Metric:    domain.MetricAvailability,
			Threshold: 5.0, // inverted: fires below 95% availability
			Level:     domain.AlertLevelError,
			Cooldown:  5 * time.Minute,
			Enabled:   true,
		},
		{
			Name:      "circuit_breaker_trips",
			Metric:    domain.MetricCircuitBreakerTrips,
			Threshold: 3.0,
			Level:     domain.AlertLevelWarning,
			Cooldown:  5 * time.Minute,
			Enabled:   true,
		},
	}
}
