package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Backend  BackendConfig
	AuxStore AuxStoreConfig
	Logging  LoggingConfig
}

type AppConfig struct {
	Name        string
	Environment string
}

// BackendConfig holds connection settings for the remote grading backend
type BackendConfig struct {
	// BaseURL is the root URL of the grading backend, e.g. https://grader.example.com
	BaseURL string
	// RequestTimeout is the HTTP client timeout in seconds; 0 disables the
	// client-side timeout so callers control cancellation via context
	RequestTimeout int
	// MaxUploadSizeMB caps the size of a single uploaded document
	MaxUploadSizeMB int64
}

// AuxStoreConfig holds configuration for the auxiliary relational store.
// This connection is optional; listing and deletion of key sheets are the
// only operations that need it.
type AuxStoreConfig struct {
	// Enabled controls whether the auxiliary store connection is attempted
	Enabled         bool
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// ConnectionString builds the PostgreSQL connection string for the auxiliary store
func (a *AuxStoreConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		a.Host, a.Port, a.User, a.Password, a.Name, a.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (a *AuxStoreConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(a.ConnMaxLifetime) * time.Second
}

// RequestTimeoutDuration returns the backend HTTP timeout as duration
func (b *BackendConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(b.RequestTimeout) * time.Second
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Allow the backend URL to come from a flat env var as well
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = v.GetString("GRADEFLOW_BACKEND_URL")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Gradeflow Client")
	v.SetDefault("app.environment", "development")

	// Backend defaults
	v.SetDefault("backend.baseURL", "http://localhost:8000")
	v.SetDefault("backend.requestTimeout", 0) // callers cancel via context
	v.SetDefault("backend.maxUploadSizeMB", 50)

	// Auxiliary store defaults (optional, list/delete only)
	v.SetDefault("auxStore.enabled", false)
	v.SetDefault("auxStore.host", "localhost")
	v.SetDefault("auxStore.port", 5432)
	v.SetDefault("auxStore.name", "gradeflow")
	v.SetDefault("auxStore.user", "gradeflow_user")
	v.SetDefault("auxStore.password", "gradeflow_password")
	v.SetDefault("auxStore.sslMode", "disable")
	v.SetDefault("auxStore.maxOpenConns", 10)
	v.SetDefault("auxStore.maxIdleConns", 2)
	v.SetDefault("auxStore.connMaxLifetime", 300)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
