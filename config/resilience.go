package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ResilienceConfig centralizes the circuit breaker and logging tuning that
// sits around the protocol core without being part of it.
type ResilienceConfig struct {
	// Circuit breaker settings, one breaker per Request Driver kind.
	CBFailureThreshold int           `yaml:"cb_failure_threshold"`
	CBTimeout          time.Duration `yaml:"cb_timeout"`
	CBHalfOpenRequests int           `yaml:"cb_half_open_requests"`

	// Logging settings.
	LogLevel string `yaml:"log_level"`
}

// DefaultResilienceConfig returns a ResilienceConfig with sensible defaults.
func DefaultResilienceConfig() *ResilienceConfig {
	return &ResilienceConfig{
		CBFailureThreshold: 5,
		CBTimeout:          30 * time.Second,
		CBHalfOpenRequests: 1,
		LogLevel:           "INFO",
	}
}

// LoadFromEnv loads resilience configuration from environment variables,
// starting from DefaultResilienceConfig().
func LoadFromEnv() (*ResilienceConfig, error) {
	cfg := DefaultResilienceConfig()
	if err := applyResilienceEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyResilienceEnvOverrides mutates cfg in place with any set environment
// variables, leaving fields whose variable is unset untouched. Used both by
// LoadFromEnv (starting from defaults) and by Config's own env overlay
// (starting from whatever the YAML file already set).
func applyResilienceEnvOverrides(cfg *ResilienceConfig) error {
	var errs []string

	if val := os.Getenv("MTC_CB_FAILURE_THRESHOLD"); val != "" {
		threshold, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, "MTC_CB_FAILURE_THRESHOLD: must be a valid integer")
		} else if threshold <= 0 {
			errs = append(errs, "MTC_CB_FAILURE_THRESHOLD must be positive")
		} else {
			cfg.CBFailureThreshold = threshold
		}
	}

	if val := os.Getenv("MTC_CB_TIMEOUT"); val != "" {
		duration, err := time.ParseDuration(val)
		if err != nil {
			errs = append(errs, "MTC_CB_TIMEOUT: invalid duration format (use '30s', '1m', etc.)")
		} else if duration <= 0 {
			errs = append(errs, "MTC_CB_TIMEOUT must be positive")
		} else {
			cfg.CBTimeout = duration
		}
	}

	if val := os.Getenv("MTC_CB_HALF_OPEN_REQUESTS"); val != "" {
		requests, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, "MTC_CB_HALF_OPEN_REQUESTS: must be a valid integer")
		} else if requests <= 0 {
			errs = append(errs, "MTC_CB_HALF_OPEN_REQUESTS must be positive")
		} else {
			cfg.CBHalfOpenRequests = requests
		}
	}

	if val := os.Getenv("MTC_LOG_LEVEL"); val != "" {
		level := strings.ToUpper(val)
		validLevels := map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
		if !validLevels[level] {
			errs = append(errs, "MTC_LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Validate performs additional validation on the configuration.
func (c *ResilienceConfig) Validate() error {
	var errs []string

	if c.CBFailureThreshold <= 0 {
		errs = append(errs, "CBFailureThreshold must be positive")
	}
	if c.CBTimeout <= 0 {
		errs = append(errs, "CBTimeout must be positive")
	}
	if c.CBHalfOpenRequests <= 0 {
		errs = append(errs, "CBHalfOpenRequests must be positive")
	}

	validLevels := map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
	if !validLevels[c.LogLevel] {
		errs = append(errs, "LogLevel must be one of: DEBUG, INFO, WARN, ERROR")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
