package config

import (
	"os"
	"strconv"
	"time"

	"docmerge/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `validate:"required"`
	Upload     UploadConfig     `validate:"required"`
	Generation GenerationConfig `validate:"required"`
	Profiling  ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Host    string
	Port    string `validate:"required"`
	GinMode string
}

// UploadConfig holds upload handling settings
type UploadConfig struct {
	MaxBytes    int64
	PreviewRows int
	SessionTTL  time.Duration
}

// GenerationConfig holds document generation settings
type GenerationConfig struct {
	OutputRoot        string
	MaxConcurrentRuns int64
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	// Load server configuration
	serverConfig := loadServerConfig()
	config.Server = *serverConfig

	// Load upload configuration
	uploadConfig, err := loadUploadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load upload configuration")
	}
	config.Upload = *uploadConfig

	// Load generation configuration
	generationConfig, err := loadGenerationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load generation configuration")
	}
	config.Generation = *generationConfig

	// Load profiling configuration
	profilingConfig := loadProfilingConfig()
	config.Profiling = *profilingConfig

	// Validate required fields
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:    getEnvOrDefault("HOST", ""),
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadUploadConfig() (*UploadConfig, error) {
	maxBytes := getEnvInt64OrDefault("MAX_UPLOAD_BYTES", 20<<20)
	if maxBytes <= 0 {
		return nil, errors.ConfigInvalid("MAX_UPLOAD_BYTES must be positive")
	}

	return &UploadConfig{
		MaxBytes:    maxBytes,
		PreviewRows: getEnvIntOrDefault("PREVIEW_ROWS", 10),
		SessionTTL:  getEnvDurationOrDefault("SESSION_TTL", 30*time.Minute),
	}, nil
}

func loadGenerationConfig() (*GenerationConfig, error) {
	maxRuns := getEnvInt64OrDefault("MAX_CONCURRENT_RUNS", 2)
	if maxRuns < 1 {
		return nil, errors.ConfigInvalid("MAX_CONCURRENT_RUNS must be at least 1")
	}

	return &GenerationConfig{
		OutputRoot:        getEnvOrDefault("OUTPUT_ROOT", "output"),
		MaxConcurrentRuns: maxRuns,
	}, nil
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Upload.PreviewRows < 1 {
		return errors.ConfigInvalid("preview row count must be at least 1")
	}
	if config.Upload.SessionTTL <= 0 {
		return errors.ConfigInvalid("session TTL must be positive")
	}
	if config.Generation.OutputRoot == "" {
		return errors.ConfigInvalid("output root directory is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
