package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/optiflow/decision-engine/pkg/models"
)

func TestNewConfigDefaults(t *testing.T) {
	// Clear any existing env vars
	os.Unsetenv("LISTEN_ADDR")
	os.Unsetenv("AUTO_IMPLEMENT_CONFIDENCE_THRESHOLD")
	os.Unsetenv("PERFORMANCE_WARNING_THRESHOLD")
	os.Unsetenv("REASONER_MODEL")
	os.Unsetenv("REASONER_TIMEOUT_SECONDS")
	os.Unsetenv("MIN_PERSIST_PRIORITY")

	cfg := NewConfig()

	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected default listen addr :8080, got %s", cfg.ListenAddr)
	}

	if cfg.AutoImplementThreshold != 85 {
		t.Errorf("Expected default auto-implement threshold 85, got %d", cfg.AutoImplementThreshold)
	}

	if cfg.PerformanceThreshold != 70 {
		t.Errorf("Expected default performance threshold 70, got %d", cfg.PerformanceThreshold)
	}

	if cfg.ReasonerModel != "gpt-4o-mini" {
		t.Errorf("Expected default model gpt-4o-mini, got %s", cfg.ReasonerModel)
	}

	if cfg.ReasonerTimeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.ReasonerTimeout)
	}

	if cfg.MinPersistPriority != models.PriorityMedium {
		t.Errorf("Expected default persist priority medium, got %s", cfg.MinPersistPriority)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	os.Setenv("LISTEN_ADDR", ":9999")
	os.Setenv("AUTO_IMPLEMENT_CONFIDENCE_THRESHOLD", "95")
	os.Setenv("REASONER_TIMEOUT_SECONDS", "60")
	os.Setenv("MIN_PERSIST_PRIORITY", "high")
	defer os.Unsetenv("LISTEN_ADDR")
	defer os.Unsetenv("AUTO_IMPLEMENT_CONFIDENCE_THRESHOLD")
	defer os.Unsetenv("REASONER_TIMEOUT_SECONDS")
	defer os.Unsetenv("MIN_PERSIST_PRIORITY")

	cfg := NewConfig()

	if cfg.ListenAddr != ":9999" {
		t.Errorf("Expected listen addr :9999 from env, got %s", cfg.ListenAddr)
	}

	if cfg.AutoImplementThreshold != 95 {
		t.Errorf("Expected threshold 95 from env, got %d", cfg.AutoImplementThreshold)
	}

	if cfg.ReasonerTimeout != 60*time.Second {
		t.Errorf("Expected timeout 60s from env, got %v", cfg.ReasonerTimeout)
	}

	if cfg.MinPersistPriority != models.PriorityHigh {
		t.Errorf("Expected persist priority high from env, got %s", cfg.MinPersistPriority)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name          string
		setupConfig   func(*Config)
		expectError   bool
		errorContains string
	}{
		{
			name: "valid default config",
			setupConfig: func(c *Config) {
				// Use defaults
			},
			expectError: false,
		},
		{
			name: "missing database URL",
			setupConfig: func(c *Config) {
				c.DatabaseURL = ""
			},
			expectError:   true,
			errorContains: "DATABASE_URL",
		},
		{
			name: "auto-implement threshold too high",
			setupConfig: func(c *Config) {
				c.AutoImplementThreshold = 150
			},
			expectError:   true,
			errorContains: "0-100",
		},
		{
			name: "auto-implement threshold negative",
			setupConfig: func(c *Config) {
				c.AutoImplementThreshold = -5
			},
			expectError:   true,
			errorContains: "0-100",
		},
		{
			name: "performance threshold too high",
			setupConfig: func(c *Config) {
				c.PerformanceThreshold = 101
			},
			expectError:   true,
			errorContains: "0-100",
		},
		{
			name: "unknown persist priority",
			setupConfig: func(c *Config) {
				c.MinPersistPriority = "urgent"
			},
			expectError:   true,
			errorContains: "priority",
		},
		{
			name: "reasoner timeout too small",
			setupConfig: func(c *Config) {
				c.ReasonerTimeout = 100 * time.Millisecond
			},
			expectError:   true,
			errorContains: "timeout",
		},
		{
			name: "valid edge case - threshold 0",
			setupConfig: func(c *Config) {
				c.AutoImplementThreshold = 0
			},
			expectError: false,
		},
		{
			name: "valid edge case - threshold 100",
			setupConfig: func(c *Config) {
				c.AutoImplementThreshold = 100
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.setupConfig(cfg)

			err := cfg.Validate()

			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}

			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}

			if tt.expectError && err != nil && tt.errorContains != "" {
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing '%s', got '%s'",
						tt.errorContains, err.Error())
				}
			}
		})
	}
}

func TestInvalidEnvValues(t *testing.T) {
	// Test invalid integer
	os.Setenv("AUTO_IMPLEMENT_CONFIDENCE_THRESHOLD", "invalid")
	defer os.Unsetenv("AUTO_IMPLEMENT_CONFIDENCE_THRESHOLD")

	cfg := NewConfig()

	// Should fall back to default
	if cfg.AutoImplementThreshold != 85 {
		t.Errorf("Expected fallback to default 85, got %d", cfg.AutoImplementThreshold)
	}
}
