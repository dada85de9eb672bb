package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/savegress/cliniredact/internal/audit"
)

// Config holds all configuration for the cliniredact service.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Audit  audit.Config `yaml:"audit"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
}

// EngineConfig holds redaction engine configuration.
type EngineConfig struct {
	// PatternsPath points at the pattern catalog file; empty uses the
	// embedded default catalog.
	PatternsPath string `yaml:"patterns_path"`

	// SerializeNLP serializes calls into the NLP facility for providers
	// that are not reentrant.
	SerializeNLP bool `yaml:"serialize_nlp"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from a YAML file. Environment variables inside
// the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnvInt("PORT", 3010),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Engine: EngineConfig{
			PatternsPath: getEnv("PATTERNS_PATH", ""),
			SerializeNLP: getEnvBool("SERIALIZE_NLP", false),
		},
		Audit: audit.Config{
			Enabled:    getEnvBool("AUDIT_ENABLED", true),
			BufferSize: getEnvInt("AUDIT_BUFFER_SIZE", 1000),
			MaxEvents:  getEnvInt("AUDIT_MAX_EVENTS", 10000),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
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
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
