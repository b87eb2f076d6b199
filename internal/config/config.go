package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables queue-driven ingest)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Fines feed
	FeedURL             string
	FeedRefreshInterval time.Duration

	// Caches
	SlugCacheTTL time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fines.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finewatch"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "fine_notices"),

		FeedURL:             getEnv("FINES_FEED_URL", ""),
		FeedRefreshInterval: getEnvDuration("FEED_REFRESH_INTERVAL", 6*time.Hour),

		SlugCacheTTL: getEnvDuration("SLUG_CACHE_TTL", 15*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite configuration
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
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
	}

	// Validate feed URL if provided
	if c.FeedURL != "" {
		if parsedURL, err := url.Parse(c.FeedURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid feed URL '%s': %v", c.FeedURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid feed URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.FeedRefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid feed refresh interval %v: must be at least 1 minute", c.FeedRefreshInterval))
	} else if c.FeedRefreshInterval > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid feed refresh interval %v: must be at most 7 days", c.FeedRefreshInterval))
	}

	if c.SlugCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid slug cache TTL %v: must be at least 1 second", c.SlugCacheTTL))
	} else if c.SlugCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid slug cache TTL %v: must be at most 24 hours", c.SlugCacheTTL))
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
