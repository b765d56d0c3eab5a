package domain

import "time"

// MetricType identifies which aggregated metric an alert rule watches.
type MetricType string

const (
	MetricErrorRate           MetricType = "error_rate"
	MetricErrorCount          MetricType = "error_count"
	MetricRecoveryRate        MetricType = "recovery_rate"
	MetricMeanTimeToRecovery  MetricType = "mean_time_to_recovery"
	MetricAvailability        MetricType = "availability"
	MetricCircuitBreakerTrips MetricType = "circuit_breaker_trips"
)

// AlertLevel ranks alert urgency.
type AlertLevel string

const (
	AlertLevelInfo     AlertLevel = "info"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelError    AlertLevel = "error"
	AlertLevelCritical AlertLevel = "critical"
)

// AlertRule configures one threshold check evaluated every monitor cycle.
// A zero Window evaluates over the aggregator's reporting window; a set
// Window scopes this rule's metrics to its own interval, capped at the
// aggregator's retention horizon.
type AlertRule struct {
	Name       string         `json:"name"       yaml:"name"`
	Metric     MetricType     `json:"metric"     yaml:"metric"`
	Threshold  float64        `json:"threshold"  yaml:"threshold"`
	Window     time.Duration  `json:"window"     yaml:"window"`
	Level      AlertLevel     `json:"level"      yaml:"level"`
	Conditions RuleConditions `json:"conditions" yaml:"conditions"`
	Cooldown   time.Duration  `json:"cooldown"   yaml:"cooldown"`
	Enabled    bool           `json:"enabled"    yaml:"enabled"`
}

// RuleConditions filter which events count toward a rule. Empty fields match
// everything.
type RuleConditions struct {
	Category  Category `json:"category,omitempty"  yaml:"category"`
	Severity  Severity `json:"severity,omitempty"  yaml:"severity"`
	Service   string   `json:"service,omitempty"   yaml:"service"`
	Component string   `json:"component,omitempty" yaml:"component"`
}

// Matches reports whether the event satisfies every set condition.
func (c RuleConditions) Matches(e ErrorEvent) bool {
	if c.Category != "" && e.Info.Category != c.Category {
		return false
	}
	if c.Severity != "" && e.Info.Severity != c.Severity {
		return false
	}
	if c.Service != "" && e.Service != c.Service {
		return false
	}
	if c.Component != "" && e.Component != c.Component {
		return false
	}
	return true
}

// Empty reports whether the rule has no event filters at all.
func (c RuleConditions) Empty() bool {
	return c == RuleConditions{}
}

// Alert is a fired rule instance. It lives in the active set until resolved
// and in the history log forever.
type Alert struct {
	ID           string       `json:"id"`
	RuleName     string       `json:"rule_name"`
	Level        AlertLevel   `json:"level"`
	Message      string       `json:"message"`
	Timestamp    time.Time    `json:"timestamp"`
	MetricValue  float64      `json:"metric_value"`
	Threshold    float64      `json:"threshold"`
	Events       []ErrorEvent `json:"events,omitempty"`
	Acknowledged bool         `json:"acknowledged"`
	Resolved     bool         `json:"resolved"`
}
