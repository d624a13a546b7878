package config

import "testing"

func TestDefaultResilienceConfig(t *testing.T) {
	cfg := DefaultResilienceConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestResilienceValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ResilienceConfig)
		wantErr bool
	}{
		{"valid", func(c *ResilienceConfig) {}, false},
		{"zero failure threshold", func(c *ResilienceConfig) { c.CBFailureThreshold = 0 }, true},
		{"zero timeout", func(c *ResilienceConfig) { c.CBTimeout = 0 }, true},
		{"zero half open requests", func(c *ResilienceConfig) { c.CBHalfOpenRequests = 0 }, true},
		{"bad log level", func(c *ResilienceConfig) { c.LogLevel = "TRACE" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultResilienceConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MTC_CB_FAILURE_THRESHOLD", "10")
	t.Setenv("MTC_LOG_LEVEL", "debug")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.CBFailureThreshold != 10 {
		t.Errorf("CBFailureThreshold = %d, want 10", cfg.CBFailureThreshold)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want DEBUG", cfg.LogLevel)
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("MTC_CB_FAILURE_THRESHOLD", "not-a-number")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error")
	}
}
