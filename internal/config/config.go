package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Host
	MetricsAddr string
	LogLevel    string

	// Local key/value backend
	DataBackend    string
	DataDir        string
	SQLiteDBPath   string
	RedisURL       string
	RedisKeyPrefix string

	// Remote relational store
	RemoteDatabaseURL string
	LoadSource        string

	// AMQP change stream
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Store behaviour
	PersistDebounce               time.Duration
	NotificationLimit             int
	StrictNotFound                bool
	ReconcileCodesOnProjectDelete bool

	// Bootstrap
	BootstrapAdminEmail string
	BootstrapAdminName  string
}

func Load() *Config {
	cfg := &Config{
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DataBackend:    getEnv("DATA_BACKEND", "file"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/budgetrack.db"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "budgetrack:"),

		RemoteDatabaseURL: getEnv("REMOTE_DATABASE_URL", ""),
		LoadSource:        getEnv("LOAD_SOURCE", "local"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "remote_sync"),

		PersistDebounce:               getEnvDuration("PERSIST_DEBOUNCE", 300*time.Millisecond),
		NotificationLimit:             getEnvInt("NOTIFICATION_LIMIT", 100),
		StrictNotFound:                getEnvBool("STRICT_NOT_FOUND", false),
		ReconcileCodesOnProjectDelete: getEnvBool("RECONCILE_CODES_ON_PROJECT_DELETE", false),

		BootstrapAdminEmail: getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminName:  getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.MetricsAddr != "" {
		if _, port, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid metrics address '%s': must be host:port", c.MetricsAddr))
		} else if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
			errors = append(errors, fmt.Sprintf("invalid metrics port '%s': must be between 1 and 65535", port))
		}
	}

	// Validate data backend
	validBackends := []string{"file", "sqlite", "redis", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "redis":
		if parsedURL, err := url.Parse(c.RedisURL); err != nil || c.RedisURL == "" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s'", c.RedisURL))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
	}

	// Validate remote database
	if c.RemoteDatabaseURL != "" {
		if parsedURL, err := url.Parse(c.RemoteDatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid remote database URL: %v", err))
		} else if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid remote database URL scheme '%s': must be 'postgres' or 'postgresql'", parsedURL.Scheme))
		}
	}

	switch c.LoadSource {
	case "local":
	case "remote":
		if c.RemoteDatabaseURL == "" {
			errors = append(errors, "REMOTE_DATABASE_URL is required when LOAD_SOURCE is remote")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid load source '%s': must be 'local' or 'remote'", c.LoadSource))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.RemoteDatabaseURL == "" {
			errors = append(errors, "REMOTE_DATABASE_URL is required when AMQP URL is provided")
		}
	}

	if c.PersistDebounce < 0 {
		errors = append(errors, fmt.Sprintf("invalid persist debounce %v: cannot be negative", c.PersistDebounce))
	} else if c.PersistDebounce > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid persist debounce %v: must be at most 1 minute", c.PersistDebounce))
	}

	if c.NotificationLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid notification limit %d: must be at least 1", c.NotificationLimit))
	}

	if c.BootstrapAdminEmail != "" && !strings.Contains(c.BootstrapAdminEmail, "@") {
		errors = append(errors, fmt.Sprintf("invalid bootstrap admin email '%s'", c.BootstrapAdminEmail))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
