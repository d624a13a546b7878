package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	cfg := Default()
	cfg.BaseURL = "http://localhost:5000"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.IntervalMS != 500 {
		t.Errorf("IntervalMS = %d, want 500", cfg.IntervalMS)
	}
	if cfg.TimeoutMS != 5000 {
		t.Errorf("TimeoutMS = %d, want 5000", cfg.TimeoutMS)
	}
	if cfg.RetryIntervalMS != 10000 {
		t.Errorf("RetryIntervalMS = %d, want 10000", cfg.RetryIntervalMS)
	}
	if cfg.MaxSampleCount != 200 {
		t.Errorf("MaxSampleCount = %d, want 200", cfg.MaxSampleCount)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, true},
		{"zero interval", func(c *Config) { c.IntervalMS = 0 }, true},
		{"negative timeout", func(c *Config) { c.TimeoutMS = -1 }, true},
		{"zero retry interval", func(c *Config) { c.RetryIntervalMS = 0 }, true},
		{"zero max sample count", func(c *Config) { c.MaxSampleCount = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "base_url: http://agent.example.com:5000\ndevice_name: VMC-3Axis\ninterval_ms: 1000\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.BaseURL != "http://agent.example.com:5000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DeviceName != "VMC-3Axis" {
		t.Errorf("DeviceName = %q", cfg.DeviceName)
	}
	if cfg.IntervalMS != 1000 {
		t.Errorf("IntervalMS = %d, want 1000 (overridden)", cfg.IntervalMS)
	}
	if cfg.TimeoutMS != 5000 {
		t.Errorf("TimeoutMS = %d, want 5000 (default preserved)", cfg.TimeoutMS)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MTC_BASE_URL", "http://override:5000")
	t.Setenv("MTC_INTERVAL_MS", "250")

	cfg := Default()
	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides: %v", err)
	}
	if cfg.BaseURL != "http://override:5000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.IntervalMS != 250 {
		t.Errorf("IntervalMS = %d, want 250", cfg.IntervalMS)
	}
}

// Resilience settings loaded from a file must survive applyEnvOverrides
// when no corresponding environment variable is set.
func TestEnvOverridesPreserveFileResilienceConfig(t *testing.T) {
	cfg := Default()
	cfg.Resilience.CBFailureThreshold = 42
	cfg.Resilience.LogLevel = "DEBUG"

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides: %v", err)
	}
	if cfg.Resilience.CBFailureThreshold != 42 {
		t.Errorf("CBFailureThreshold = %d, want 42 (preserved, no env var set)", cfg.Resilience.CBFailureThreshold)
	}
	if cfg.Resilience.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want DEBUG (preserved, no env var set)", cfg.Resilience.LogLevel)
	}
}

func TestEnvOverrideInvalidDuration(t *testing.T) {
	t.Setenv("MTC_INTERVAL_MS", "not-a-number")
	cfg := Default()
	if err := applyEnvOverrides(cfg); err == nil {
		t.Fatal("expected error for invalid MTC_INTERVAL_MS")
	}
}
