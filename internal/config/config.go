package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"grouprank/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Labeling LabelingConfig
	Session  SessionConfig
	Picker   PickerConfig
	Database DatabaseConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// LabelingConfig holds the image directory and grouping settings
type LabelingConfig struct {
	ImageDir       string
	GroupSize      int
	WatchManifest  bool
	RestrictImages bool
}

// SessionConfig holds identity cookie settings
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
}

// PickerConfig holds the external directory picker command
type PickerConfig struct {
	Command []string
	Timeout time.Duration
}

// DatabaseConfig holds the optional submission mirror connection.
// An empty URL disables the mirror.
type DatabaseConfig struct {
	Driver string
	URL    string
}

// DefaultGroupSize is the chunk size used when no manifest is present
const DefaultGroupSize = 6

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Labeling: *loadLabelingConfig(),
		Session:  *loadSessionConfig(),
		Picker:   *loadPickerConfig(),
		Database: *loadDatabaseConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "5000"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadLabelingConfig() *LabelingConfig {
	return &LabelingConfig{
		ImageDir:       getEnvOrDefault("IMAGE_DIR", "static/images"),
		GroupSize:      getEnvIntOrDefault("GROUP_SIZE", DefaultGroupSize),
		WatchManifest:  getEnvBoolOrDefault("WATCH_MANIFEST", false),
		RestrictImages: getEnvBoolOrDefault("RESTRICT_IMAGES", true),
	}
}

func loadSessionConfig() *SessionConfig {
	return &SessionConfig{
		CookieName: getEnvOrDefault("SESSION_COOKIE", "grouprank_session"),
		TTL:        getEnvDurationOrDefault("SESSION_TTL", 720*time.Hour),
	}
}

func loadPickerConfig() *PickerConfig {
	return &PickerConfig{
		Command: strings.Fields(os.Getenv("PICKER_COMMAND")),
		Timeout: getEnvDurationOrDefault("PICKER_TIMEOUT", 5*time.Minute),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
		URL:    getEnvOrDefault("DATABASE_URL", ""),
	}
}

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if c.Labeling.ImageDir == "" {
		return errors.ConfigInvalid("IMAGE_DIR is required")
	}
	if c.Labeling.GroupSize <= 0 {
		return errors.ConfigInvalid("GROUP_SIZE must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.ConfigInvalid("SESSION_COOKIE is required")
	}
	if c.Database.URL != "" {
		switch c.Database.Driver {
		case "postgres", "sqlite":
		default:
			return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite")
		}
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	if strings.Contains(c.Server.Port, ":") {
		return c.Server.Port
	}
	return "0.0.0.0:" + c.Server.Port
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
