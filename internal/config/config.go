// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port string

	AWSRegion    string
	PlacesRegion string

	ModelID     string
	ChatModelID string

	AgentID      string
	AgentAliasID string

	HistoryTable string

	LocationAPIKey string

	ReportBucket string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3UseSSL     bool

	SessionTTL    time.Duration
	SweepInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		PlacesRegion:   getEnv("PLACES_REGION", "us-east-1"),
		ModelID:        getEnv("BEDROCK_MODEL_ID", "amazon.nova-lite-v1:0"),
		ChatModelID:    getEnv("BEDROCK_CHAT_MODEL_ID", ""),
		AgentID:        getEnv("BEDROCK_AGENT_ID", ""),
		AgentAliasID:   getEnv("BEDROCK_AGENT_ALIAS_ID", ""),
		HistoryTable:   getEnv("CHAT_HISTORY_TABLE", "MedicalAI_ChatHistory"),
		LocationAPIKey: getEnv("LOCATION_API_KEY", ""),
		ReportBucket:   getEnv("REPORT_BUCKET", ""),
		S3Endpoint:     getEnv("S3_ENDPOINT", "s3.amazonaws.com"),
		S3AccessKey:    getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3UseSSL:       getEnvBool("S3_USE_SSL", true),
		SessionTTL:     getEnvDuration("AGENT_SESSION_TTL", 15*time.Minute),
		SweepInterval:  getEnvDuration("AGENT_SWEEP_INTERVAL", time.Minute),
	}
	if cfg.ChatModelID == "" {
		cfg.ChatModelID = cfg.ModelID
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.AWSRegion == "" {
		return fmt.Errorf("AWS_REGION cannot be empty")
	}
	if c.ModelID == "" {
		return fmt.Errorf("BEDROCK_MODEL_ID cannot be empty")
	}
	if c.HistoryTable == "" {
		return fmt.Errorf("CHAT_HISTORY_TABLE cannot be empty")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("AGENT_SWEEP_INTERVAL must be > 0")
	}
	return nil
}

// AgentConfigured reports whether the Bedrock agent endpoints can be served.
func (c *Config) AgentConfigured() bool {
	return c.AgentID != "" && c.AgentAliasID != ""
}

// ReportsConfigured reports whether report generation can be served.
func (c *Config) ReportsConfigured() bool {
	return c.ReportBucket != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are read as seconds.
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
