package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/optiflow/decision-engine/pkg/models"
)

// Config holds application configuration
type Config struct {
	// Server
	ListenAddr string

	// Storage
	DatabaseURL string

	// Reasoner (external reasoning collaborator)
	ReasonerBaseURL string
	ReasonerAPIKey  string
	ReasonerModel   string
	ReasonerTimeout time.Duration

	// Decision policy
	AutoImplementThreshold int             // confidence needed to bypass manual approval
	PerformanceThreshold   int             // workforce mean below this activates the trigger
	MinPersistPriority     models.Priority // recommendations below this are display-only

	// Notifications
	NotifyWebhookURL string

	// Output
	Verbose bool
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		ListenAddr:             getEnv("LISTEN_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", "host=localhost port=5432 user=optiflow password=devpassword dbname=decisions sslmode=disable"),
		ReasonerBaseURL:        getEnv("REASONER_BASE_URL", "https://api.openai.com"),
		ReasonerAPIKey:         getEnv("REASONER_API_KEY", ""),
		ReasonerModel:          getEnv("REASONER_MODEL", "gpt-4o-mini"),
		ReasonerTimeout:        time.Duration(getEnvInt("REASONER_TIMEOUT_SECONDS", 30)) * time.Second,
		AutoImplementThreshold: getEnvInt("AUTO_IMPLEMENT_CONFIDENCE_THRESHOLD", 85),
		PerformanceThreshold:   getEnvInt("PERFORMANCE_WARNING_THRESHOLD", 70),
		MinPersistPriority:     models.Priority(getEnv("MIN_PERSIST_PRIORITY", string(models.PriorityMedium))),
		NotifyWebhookURL:       getEnv("NOTIFY_WEBHOOK_URL", ""),
		Verbose:                getEnvBool("VERBOSE", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.AutoImplementThreshold < 0 || c.AutoImplementThreshold > 100 {
		return fmt.Errorf("auto-implement threshold must be within 0-100, got %d", c.AutoImplementThreshold)
	}
	if c.PerformanceThreshold < 0 || c.PerformanceThreshold > 100 {
		return fmt.Errorf("performance threshold must be within 0-100, got %d", c.PerformanceThreshold)
	}
	if !c.MinPersistPriority.Valid() {
		return fmt.Errorf("unknown minimum persist priority %q", c.MinPersistPriority)
	}
	if c.ReasonerTimeout < time.Second {
		return fmt.Errorf("reasoner timeout must be at least 1s")
	}
	return nil
}
