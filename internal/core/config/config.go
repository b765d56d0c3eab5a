package config

import (
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
	redisclient "github.com/vietddude/sentinel/internal/infra/redis"
	"github.com/vietddude/sentinel/internal/infra/storage/postgres"
	"github.com/vietddude/sentinel/internal/resilience"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig                        `yaml:"server"`
	Monitor  MonitorConfig                       `yaml:"monitor"`
	Services map[string]resilience.ServiceConfig `yaml:"services"`
	Rules    []RuleConfig                        `yaml:"rules"`
	Redis    redisclient.Config                  `yaml:"redis"`
	Logging  LoggingConfig                       `yaml:"logging"`
	Database postgres.Config                     `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// MonitorConfig holds monitor loop settings.
type MonitorConfig struct {
	Window          time.Duration `yaml:"window"`
	Interval        time.Duration `yaml:"interval"`
	RetentionPeriod time.Duration `yaml:"retention_period"` // 0 = infinite
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RuleConfig declares one alert rule in the config file. Declared rules are
// added on top of (or replace, by name) the default rule set.
type RuleConfig struct {
	Name      string        `yaml:"name"`
	Metric    string        `yaml:"metric"`
	Threshold float64       `yaml:"threshold"`
	Window    time.Duration `yaml:"window"`
	Level     string        `yaml:"level"`
	Cooldown  time.Duration `yaml:"cooldown"`
	Disabled  bool          `yaml:"disabled"`
	Category  string        `yaml:"category"`
	Severity  string        `yaml:"severity"`
	Service   string        `yaml:"service"`
	Component string        `yaml:"component"`
}

// ToRule converts a declared rule to the domain form.
func (rc RuleConfig) ToRule() domain.AlertRule {
	return domain.AlertRule{
		Name:      rc.Name,
		Metric:    domain.MetricType(rc.Metric),
		Threshold: rc.Threshold,
		Window:    rc.Window,
		Level:     domain.AlertLevel(rc.Level),
		Cooldown:  rc.Cooldown,
		Enabled:   !rc.Disabled,
		Conditions: domain.RuleConditions{
			Category:  domain.Category(rc.Category),
			Severity:  domain.Severity(rc.Severity),
			Service:   rc.Service,
			Component: rc.Component,
		},
	}
}
