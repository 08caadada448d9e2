package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/beacon/pkg/errs"
)

// Load reads and parses the YAML config at path, merges it over
// Default(), then applies environment variable overrides. A missing
// file is not an error: Load falls back to Default() with env
// overrides still applied, so the process can run from environment
// configuration alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errs.New(errs.Configuration, "config.load.parse", err)
			}
		case os.IsNotExist(err):
			// fall through with defaults only
		default:
			return nil, errs.New(errs.Configuration, "config.load.read", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies the four environment variables the spec
// recognizes. Each is independently optional; an invalid value for a
// set variable is a Configuration error, not silently ignored.
func applyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv("METRICS_DB_PATH"); ok {
		if cfg.Storage.Config == nil {
			cfg.Storage.Config = map[string]interface{}{}
		}
		cfg.Storage.Config["path"] = v
	}

	if v, ok := os.LookupEnv("METRICS_RETENTION_DAYS"); ok {
		days, err := strconv.Atoi(v)
		if err != nil {
			return errs.New(errs.Configuration, "config.env.metrics_retention_days", fmt.Errorf("invalid METRICS_RETENTION_DAYS %q: %w", v, err))
		}
		cfg.Storage.Retention.DefaultRetentionDays = days
	}

	if v, ok := os.LookupEnv("EVALUATION_INTERVAL_SECONDS"); ok {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return errs.New(errs.Configuration, "config.env.evaluation_interval_seconds", fmt.Errorf("invalid EVALUATION_INTERVAL_SECONDS %q: %w", v, err))
		}
		cfg.Alerts.EvaluationInterval = Duration{time.Duration(seconds) * time.Second}
	}

	if v, ok := os.LookupEnv("HOOK_MAX_CONCURRENT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.New(errs.Configuration, "config.env.hook_max_concurrent", fmt.Errorf("invalid HOOK_MAX_CONCURRENT %q: %w", v, err))
		}
		cfg.Hooks.MaxConcurrent = n
	}

	return nil
}

// DefaultRetention returns the configured default retention as a
// time.Duration, for handing straight to retention.NewRetentionManager.
func (c *Config) DefaultRetention() time.Duration {
	days := c.Storage.Retention.DefaultRetentionDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}
