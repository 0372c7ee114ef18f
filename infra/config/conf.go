package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port             string
	Environment      string
	Transport        string
	SQLitePath       string
	OpenSearchURL    string
	OpenSearchUser   string
	OpenSearchPass   string
	EnableLogging    bool
	LoggingLevel     string
	LogRetentionDays int
	AllowedOrigins   string
	ShutdownTimeout  time.Duration
}

var (
	instance     *Config
	instanceOnce sync.Once

	appConfigInstance *AppConfig
)

func App() *Config {
	instanceOnce.Do(func() {
		instance = &Config{
			Validator: validator.New(),
		}
	})
	return instance
}

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:             GetEnv("APP_PORT", "9999"),
			Environment:      GetEnv("ENVIRONMENT", "development"),
			Transport:        GetEnv("SP_TRANSPORT", "http"),
			SQLitePath:       GetEnv("SQLITE_PATH", ""),
			OpenSearchURL:    GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:   GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:   GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:    GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:     GetEnv("LOGGING_LEVEL", "info"),
			LogRetentionDays: GetIntEnv("LOG_RETENTION_DAYS", 30),
			AllowedOrigins:   GetEnv("ALLOWED_ORIGINS", "*"),
			ShutdownTimeout:  GetDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		}
	}
	return appConfigInstance
}

// LoadEnvFile loads variables from the given .env files (".env" when none is
// given) into the process environment. Already set variables win.
func LoadEnvFile(paths ...string) error {
	return godotenv.Load(paths...)
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetDurationEnv accepts Go durations ("30s") or a bare number of seconds
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
