package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Storage StorageConfig
	Metrics MetricsConfig
	Tracing TracingConfig
	Audit   AuditConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects and configures the on-device key-value store
type StorageConfig struct {
	Type       string // "memory", "badger", "sqlite"
	DataDir    string
	BackupDir  string
	SyncWrites bool
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// TracingConfig contains OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled        bool
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRatio  float64
	InsecureConn   bool
}

// AuditConfig controls the change trail of mutating requests
type AuditConfig struct {
	Enabled       bool
	Sink          string // "stdout", "file"
	FilePath      string
	BufferSize    int
	FlushInterval time.Duration
	DropPolicy    string // "drop", "block"
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnvString("INTENT_HOST", ""),
			Port: getEnvInt("INTENT_PORT", 8888),
		},
		Log: LogConfig{
			Level:  getEnvString("INTENT_LOG_LEVEL", "info"),
			Format: getEnvString("INTENT_LOG_FORMAT", "text"),
		},
		Storage: StorageConfig{
			Type:       getEnvString("INTENT_STORAGE_TYPE", "badger"),
			DataDir:    getEnvString("INTENT_DATA_DIR", "./data"),
			BackupDir:  getEnvString("INTENT_BACKUP_DIR", "./backups"),
			SyncWrites: getEnvBool("INTENT_SYNC_WRITES", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("INTENT_METRICS_ENABLED", true),
			Path:    getEnvString("INTENT_METRICS_PATH", "/metrics"),
		},
		Tracing: TracingConfig{
			Enabled:        getEnvBool("INTENT_TRACING_ENABLED", false),
			Endpoint:       getEnvString("INTENT_TRACING_ENDPOINT", "otel-collector:4318"),
			ServiceName:    getEnvString("INTENT_TRACING_SERVICE_NAME", "intent"),
			ServiceVersion: getEnvString("INTENT_TRACING_SERVICE_VERSION", "1.0.0"),
			Environment:    getEnvString("INTENT_TRACING_ENVIRONMENT", "development"),
			SamplingRatio:  getEnvFloat("INTENT_TRACING_SAMPLING_RATIO", 1.0),
			InsecureConn:   getEnvBool("INTENT_TRACING_INSECURE", true),
		},
		Audit: AuditConfig{
			Enabled:       getEnvBool("INTENT_AUDIT_ENABLED", false),
			Sink:          getEnvString("INTENT_AUDIT_SINK", "file"),
			FilePath:      getEnvString("INTENT_AUDIT_FILE", "./data/audit.log"),
			BufferSize:    getEnvInt("INTENT_AUDIT_BUFFER_SIZE", 1024),
			FlushInterval: getEnvDuration("INTENT_AUDIT_FLUSH_INTERVAL", time.Second),
			DropPolicy:    getEnvString("INTENT_AUDIT_DROP_POLICY", "drop"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}

	validStorageTypes := map[string]bool{
		"memory": true,
		"badger": true,
		"sqlite": true,
	}
	if !validStorageTypes[c.Storage.Type] {
		return fmt.Errorf("invalid storage type: %s (must be memory, badger, or sqlite)", c.Storage.Type)
	}

	if c.Storage.Type != "memory" && c.Storage.DataDir == "" {
		return fmt.Errorf("data directory must be specified for %s storage", c.Storage.Type)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics path: %q (must start with /)", c.Metrics.Path)
	}

	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing endpoint must be specified when tracing is enabled")
		}
		if c.Tracing.SamplingRatio < 0 || c.Tracing.SamplingRatio > 1 {
			return fmt.Errorf("invalid tracing sampling ratio: %v (must be 0.0-1.0)", c.Tracing.SamplingRatio)
		}
	}

	if c.Audit.Enabled {
		switch c.Audit.Sink {
		case "stdout":
		case "file":
			if c.Audit.FilePath == "" {
				return fmt.Errorf("audit file path must be specified for file sink")
			}
		default:
			return fmt.Errorf("invalid audit sink: %s (must be stdout or file)", c.Audit.Sink)
		}
		if c.Audit.BufferSize <= 0 {
			return fmt.Errorf("invalid audit buffer size: %d (must be positive)", c.Audit.BufferSize)
		}
		if c.Audit.DropPolicy != "drop" && c.Audit.DropPolicy != "block" {
			return fmt.Errorf("invalid audit drop policy: %s (must be drop or block)", c.Audit.DropPolicy)
		}
	}

	return nil
}

// Address returns the server address in host:port format
func (c *Config) Address() string {
	if c.Server.Host == "" {
		return fmt.Sprintf(":%d", c.Server.Port)
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
