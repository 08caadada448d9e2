package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes a YAML duration string ("30s", "5m") into a
// time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// CollectorConfig configures one named collector instance.
type CollectorConfig struct {
	Enabled            bool                   `yaml:"enabled"`
	Type               string                 `yaml:"type"`
	CollectionInterval Duration               `yaml:"collection_interval"`
	Timeout            Duration               `yaml:"timeout"`
	RetryAttempts      int                    `yaml:"retry_attempts"`
	RetryDelay         Duration               `yaml:"retry_delay"`
	CustomLabels       map[string]string      `yaml:"custom_labels"`
	Parameters         map[string]interface{} `yaml:"parameters"`
}

// GlobalConfig holds collector-wide fallback defaults.
type GlobalConfig struct {
	DefaultCollectionInterval Duration `yaml:"default_collection_interval"`
	DefaultTimeout            Duration `yaml:"default_timeout"`
	DefaultRetryAttempts      int      `yaml:"default_retry_attempts"`
	DefaultRetryDelay         Duration `yaml:"default_retry_delay"`
	LogLevel                  string   `yaml:"log_level"`
}

// RuntimeConfig selects the preferred container runtime adapter.
type RuntimeConfig struct {
	Preferred string `yaml:"preferred"`
}

// RetentionRuleConfig is one pattern-matched retention policy.
type RetentionRuleConfig struct {
	Pattern         string            `yaml:"pattern"`
	LabelFilters    map[string]string `yaml:"label_filters"`
	Retention       Duration          `yaml:"retention"`
	Priority        int               `yaml:"priority"`
	MinPointsToKeep int               `yaml:"min_points_to_keep"`
}

// RetentionConfig configures the retention engine.
type RetentionConfig struct {
	WithDefaults         bool                  `yaml:"with_defaults"`
	DefaultRetentionDays int                   `yaml:"default_retention_days"`
	CleanupIntervalHours float64               `yaml:"cleanup_interval_hours"`
	Rules                []RetentionRuleConfig `yaml:"rules"`
}

// StorageConfig selects and configures the timeseries store backend.
type StorageConfig struct {
	Backend   string                 `yaml:"backend"`
	Config    map[string]interface{} `yaml:"config"`
	Retention RetentionConfig        `yaml:"retention"`
}

// AlertsConfig configures the alert rule engine.
type AlertsConfig struct {
	EvaluationInterval    Duration `yaml:"evaluation_interval"`
	RetentionPeriod       Duration `yaml:"retention_period"`
	MaxAlerts             int      `yaml:"max_alerts"`
	DefaultResolveTimeout Duration `yaml:"default_resolve_timeout"`
}

// ChannelConfig configures one notification channel instance.
type ChannelConfig struct {
	Name          string                 `yaml:"name"`
	Type          string                 `yaml:"type"`
	Enabled       bool                   `yaml:"enabled"`
	Parameters    map[string]interface{} `yaml:"parameters"`
	RetryAttempts int                    `yaml:"retry_attempts"`
	RetryDelay    Duration               `yaml:"retry_delay"`
}

// RoutingConfig configures one notification routing rule.
type RoutingConfig struct {
	Severities   []string          `yaml:"severities"`
	LabelEquals  map[string]string `yaml:"label_equals"`
	RuleNameGlob string            `yaml:"rule_name_glob"`
	Channels     []string          `yaml:"channels"`
	Template     string            `yaml:"template"`
}

// NotificationsConfig configures the notification router.
type NotificationsConfig struct {
	Channels []ChannelConfig `yaml:"channels"`
	Routing  []RoutingConfig `yaml:"routing"`
}

// PrometheusConfig configures the HTTP scrape endpoint.
type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// HooksConfig configures the hook dispatcher.
type HooksConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Config is beacond's complete configuration file schema.
type Config struct {
	Collectors    map[string]CollectorConfig `yaml:"collectors"`
	Global        GlobalConfig               `yaml:"global"`
	Runtime       RuntimeConfig              `yaml:"runtime"`
	Storage       StorageConfig              `yaml:"storage"`
	Alerts        AlertsConfig               `yaml:"alerts"`
	Notifications NotificationsConfig        `yaml:"notifications"`
	Prometheus    PrometheusConfig           `yaml:"prometheus"`
	Hooks         HooksConfig                `yaml:"hooks"`
}

// Default returns a Config populated with beacond's built-in defaults,
// the same values Load falls back to for any field the file omits.
func Default() *Config {
	return &Config{
		Collectors: map[string]CollectorConfig{},
		Global: GlobalConfig{
			DefaultCollectionInterval: Duration{15 * time.Second},
			DefaultTimeout:            Duration{5 * time.Second},
			DefaultRetryAttempts:      3,
			DefaultRetryDelay:         Duration{2 * time.Second},
			LogLevel:                  "info",
		},
		Runtime: RuntimeConfig{Preferred: "docker"},
		Storage: StorageConfig{
			Backend: "bolt",
			Config:  map[string]interface{}{"path": "beacon-timeseries.db"},
			Retention: RetentionConfig{
				WithDefaults:         true,
				DefaultRetentionDays: 7,
				CleanupIntervalHours: 1,
			},
		},
		Alerts: AlertsConfig{
			EvaluationInterval:    Duration{15 * time.Second},
			RetentionPeriod:       Duration{24 * time.Hour},
			MaxAlerts:             1000,
			DefaultResolveTimeout: Duration{5 * time.Minute},
		},
		Prometheus: PrometheusConfig{Enabled: true, Port: 9100, Path: "/metrics"},
		Hooks:      HooksConfig{MaxConcurrent: 5},
	}
}
