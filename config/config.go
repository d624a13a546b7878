// Package config loads and validates this client's configuration. It lives
// outside session/sequence/transport: the core only ever sees the
// already-validated Config value.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the immutable-after-Start configuration for a client run.
type Config struct {
	BaseURL         string `yaml:"base_url"`
	DeviceName      string `yaml:"device_name"`
	IntervalMS      int    `yaml:"interval_ms"`
	TimeoutMS       int    `yaml:"timeout_ms"`
	RetryIntervalMS int    `yaml:"retry_interval_ms"`
	MaxSampleCount  int    `yaml:"max_sample_count"`

	Resilience ResilienceConfig `yaml:"resilience"`
}

// Interval returns IntervalMS as a time.Duration.
func (c *Config) Interval() time.Duration { return time.Duration(c.IntervalMS) * time.Millisecond }

// Timeout returns TimeoutMS as a time.Duration.
func (c *Config) Timeout() time.Duration { return time.Duration(c.TimeoutMS) * time.Millisecond }

// RetryInterval returns RetryIntervalMS as a time.Duration.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMS) * time.Millisecond
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.BaseURL == "" {
		errs = append(errs, "base_url is required")
	}
	if c.IntervalMS <= 0 {
		errs = append(errs, "interval_ms must be positive")
	}
	if c.TimeoutMS <= 0 {
		errs = append(errs, "timeout_ms must be positive")
	}
	if c.RetryIntervalMS <= 0 {
		errs = append(errs, "retry_interval_ms must be positive")
	}
	if c.MaxSampleCount <= 0 {
		errs = append(errs, "max_sample_count must be positive")
	}

	if err := c.Resilience.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("resilience config: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Default returns a Config with conservative defaults: interval_ms=500,
// timeout_ms=5000, retry_interval_ms=10000, max_sample_count=200.
func Default() *Config {
	return &Config{
		IntervalMS:      500,
		TimeoutMS:       5000,
		RetryIntervalMS: 10000,
		MaxSampleCount:  200,
		Resilience:      *DefaultResilienceConfig(),
	}
}

// LoadFromFile loads configuration from a YAML file, starting from Default().
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from CONFIG_FILE (or ./config.yaml if present)
// and applies environment variable overrides on top.
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("MTC_BASE_URL"); val != "" {
		cfg.BaseURL = val
	}
	if val := os.Getenv("MTC_DEVICE_NAME"); val != "" {
		cfg.DeviceName = val
	}
	if val := os.Getenv("MTC_INTERVAL_MS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid MTC_INTERVAL_MS: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("MTC_INTERVAL_MS must be positive")
		}
		cfg.IntervalMS = n
	}
	if val := os.Getenv("MTC_TIMEOUT_MS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid MTC_TIMEOUT_MS: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("MTC_TIMEOUT_MS must be positive")
		}
		cfg.TimeoutMS = n
	}
	if val := os.Getenv("MTC_RETRY_INTERVAL_MS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid MTC_RETRY_INTERVAL_MS: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("MTC_RETRY_INTERVAL_MS must be positive")
		}
		cfg.RetryIntervalMS = n
	}
	if val := os.Getenv("MTC_MAX_SAMPLE_COUNT"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid MTC_MAX_SAMPLE_COUNT: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("MTC_MAX_SAMPLE_COUNT must be positive")
		}
		cfg.MaxSampleCount = n
	}

	if err := applyResilienceEnvOverrides(&cfg.Resilience); err != nil {
		return fmt.Errorf("failed to apply resilience overrides: %w", err)
	}

	return nil
}

// Print outputs the configuration to stdout.
func (c *Config) Print() {
	fmt.Printf("baseURL: %v\n", c.BaseURL)
	fmt.Printf("deviceName: %v\n", c.DeviceName)
	fmt.Printf("intervalMs: %v\n", c.IntervalMS)
	fmt.Printf("timeoutMs: %v\n", c.TimeoutMS)
	fmt.Printf("retryIntervalMs: %v\n", c.RetryIntervalMS)
	fmt.Printf("maxSampleCount: %v\n", c.MaxSampleCount)
	fmt.Printf("logLevel: %v\n", c.Resilience.LogLevel)
}
