// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Directory DirectoryConfig
	Cache     CacheConfig
	Batch     BatchConfig
	Redis     RedisConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// DirectoryConfig holds student directory settings.
type DirectoryConfig struct {
	// Capacity bounds the directory; 0 means unbounded.
	Capacity int

	// GPAScale selects the conversion variant: "standard" or "fine".
	GPAScale string
}

// CacheConfig holds in-process statistic cache settings.
type CacheConfig struct {
	TTL            time.Duration
	Capacity       int
	HighWaterRatio float64

	// SweepInterval for the background sweep; 0 means TTL/2.
	SweepInterval time.Duration
}

// BatchConfig holds batch coordinator defaults.
type BatchConfig struct {
	Concurrency   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// RedisConfig holds the optional shared statistic cache settings.
type RedisConfig struct {
	Enabled      bool
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TTL          time.Duration
}

// Load reads configuration from the environment, applying defaults and
// validating ranges.
func Load() (*Config, error) {
	env := Environment(getEnv("APP_ENV", "development"))

	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "gradehub-core"),
			Environment:     env,
			Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
			Version:         getEnv("APP_VERSION", "0.1.0"),
			ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Directory: DirectoryConfig{
			Capacity: getEnvInt("DIRECTORY_CAPACITY", 0),
			GPAScale: getEnv("DIRECTORY_GPA_SCALE", "standard"),
		},
		Cache: CacheConfig{
			TTL:            getEnvDuration("CACHE_TTL", 5*time.Minute),
			Capacity:       getEnvInt("CACHE_CAPACITY", 1024),
			HighWaterRatio: getEnvFloat("CACHE_HIGH_WATER_RATIO", 0.8),
			SweepInterval:  getEnvDuration("CACHE_SWEEP_INTERVAL", 0),
		},
		Batch: BatchConfig{
			Concurrency:   getEnvInt("BATCH_CONCURRENCY", 4),
			Timeout:       getEnvDuration("BATCH_TIMEOUT", 5*time.Minute),
			RetryAttempts: getEnvInt("BATCH_RETRY_ATTEMPTS", 1),
			RetryDelay:    getEnvDuration("BATCH_RETRY_DELAY", 50*time.Millisecond),
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			TTL:          getEnvDuration("REDIS_TTL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks configured ranges.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("invalid APP_ENV: %s", c.App.Environment)
	}
	if c.Directory.Capacity < 0 {
		return fmt.Errorf("DIRECTORY_CAPACITY must be >= 0")
	}
	if c.Directory.GPAScale != "standard" && c.Directory.GPAScale != "fine" {
		return fmt.Errorf("invalid DIRECTORY_GPA_SCALE: %s", c.Directory.GPAScale)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("CACHE_CAPACITY must be positive")
	}
	if c.Cache.HighWaterRatio <= 0 || c.Cache.HighWaterRatio > 1 {
		return fmt.Errorf("CACHE_HIGH_WATER_RATIO must be in (0,1]")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be >= 1")
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
