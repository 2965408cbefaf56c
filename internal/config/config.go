package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"churndash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Auth      AuthConfig
	Profiling ProfilingConfig
	Logging   LoggingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DataConfig holds data source and chart settings
type DataConfig struct {
	File          string
	HistogramBins int
}

// AuthConfig holds the placeholder credential store and session lifetime
type AuthConfig struct {
	Users       []UserCredential
	IdleTimeout time.Duration
}

// UserCredential is one configured dashboard login
type UserCredential struct {
	Username    string
	Password    string
	DisplayName string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// LoggingConfig holds log verbosity and encoding
type LoggingConfig struct {
	Level  string
	Format string
}

// DefaultDataFile is the fixed relative location of the dataset
const DefaultDataFile = "./data/cleaned_merged.csv"

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	config.Server = *loadServerConfig()
	config.Data = *loadDataConfig()

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load auth configuration")
	}
	config.Auth = *authConfig

	config.Profiling = *loadProfilingConfig()
	config.Logging = *loadLoggingConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:          getEnvOrDefault("DATA_FILE", DefaultDataFile),
		HistogramBins: getEnvIntOrDefault("HISTOGRAM_BINS", 20),
	}
}

func loadAuthConfig() (*AuthConfig, error) {
	users, err := ParseUsers(os.Getenv("DASHBOARD_USERS"))
	if err != nil {
		return nil, err
	}
	return &AuthConfig{
		Users:       users,
		IdleTimeout: getEnvDurationOrDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute),
	}, nil
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
	}
}

// ParseUsers parses "user:password:Display Name;user2:pw2" entries.
// The display name is optional and defaults to the username.
func ParseUsers(raw string) ([]UserCredential, error) {
	var users []UserCredential
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.ConfigInvalid("DASHBOARD_USERS entries must look like user:password[:Display Name]")
		}
		user := UserCredential{
			Username:    strings.TrimSpace(parts[0]),
			Password:    parts[1],
			DisplayName: strings.TrimSpace(parts[0]),
		}
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			user.DisplayName = strings.TrimSpace(parts[2])
		}
		users = append(users, user)
	}
	return users, nil
}

func validateConfig(config *Config) error {
	if config.Data.File == "" {
		return errors.ConfigInvalid("data file path is required")
	}
	if config.Data.HistogramBins < 1 || config.Data.HistogramBins > 200 {
		return errors.ConfigInvalid("HISTOGRAM_BINS must be between 1 and 200")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	if config.Auth.IdleTimeout <= 0 {
		return errors.ConfigInvalid("SESSION_IDLE_TIMEOUT must be positive")
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
