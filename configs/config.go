package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Cache  CacheConfig
	Log    LogConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type RedisConfig struct {
	// URL is the connection string; empty keeps the cache in local mode.
	URL       string
	KeyPrefix string
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
	// Per-command retries
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	// Connection establishment
	ConnectAttempts       int
	ConnectInitialBackoff time.Duration
	ConnectMaxBackoff     time.Duration
	ConnectMaxElapsed     time.Duration
	ProbeInterval         time.Duration
}

type CacheConfig struct {
	DefaultTTL       time.Duration
	SweepInterval    time.Duration
	OperationTimeout time.Duration
	BatchConcurrency int
	HealthDataTTL    time.Duration
	FamilyDataTTL    time.Duration
	AnalysisTTL      time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:  getEnv("SERVER_TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnv("SERVER_TLS_KEY_FILE", ""),
		},
		Redis: RedisConfig{
			URL:                   getEnv("REDIS_URL", ""),
			KeyPrefix:             getEnv("REDIS_KEY_PREFIX", "healthcache"),
			PoolSize:              getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns:          getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:           getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:           getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:          getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:           getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:           getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			MaxRetries:            getIntEnv("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff:       getDurationEnv("REDIS_MIN_RETRY_BACKOFF", 100*time.Millisecond),
			MaxRetryBackoff:       getDurationEnv("REDIS_MAX_RETRY_BACKOFF", 3*time.Second),
			ConnectAttempts:       getIntEnv("REDIS_CONNECT_ATTEMPTS", 10),
			ConnectInitialBackoff: getDurationEnv("REDIS_CONNECT_INITIAL_BACKOFF", 100*time.Millisecond),
			ConnectMaxBackoff:     getDurationEnv("REDIS_CONNECT_MAX_BACKOFF", 3*time.Second),
			ConnectMaxElapsed:     getDurationEnv("REDIS_CONNECT_MAX_ELAPSED", 30*time.Second),
			ProbeInterval:         getDurationEnv("REDIS_PROBE_INTERVAL", 30*time.Second),
		},
		Cache: CacheConfig{
			DefaultTTL:       getHoursEnv("CACHE_DEFAULT_TTL_HOURS", 720),
			SweepInterval:    getDurationEnv("CACHE_SWEEP_INTERVAL", 5*time.Minute),
			OperationTimeout: getDurationEnv("CACHE_OPERATION_TIMEOUT", 2*time.Second),
			BatchConcurrency: getIntEnv("CACHE_BATCH_CONCURRENCY", 16),
			HealthDataTTL:    getHoursEnv("CACHE_HEALTH_TTL_HOURS", 720),
			FamilyDataTTL:    getHoursEnv("CACHE_FAMILY_TTL_HOURS", 24),
			AnalysisTTL:      getHoursEnv("CACHE_ANALYSIS_TTL_HOURS", 720),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the cache cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Cache.DefaultTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_DEFAULT_TTL_HOURS must be positive"))
	}
	if c.Cache.HealthDataTTL <= 0 || c.Cache.FamilyDataTTL <= 0 || c.Cache.AnalysisTTL <= 0 {
		errs = append(errs, fmt.Errorf("domain cache TTLs must be positive"))
	}
	if c.Cache.SweepInterval < time.Second {
		errs = append(errs, fmt.Errorf("CACHE_SWEEP_INTERVAL must be at least 1s, got %s", c.Cache.SweepInterval))
	}
	if c.Cache.OperationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_OPERATION_TIMEOUT must be positive"))
	}
	if c.Cache.BatchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_BATCH_CONCURRENCY must be positive"))
	}
	if c.Redis.ConnectAttempts <= 0 {
		errs = append(errs, fmt.Errorf("REDIS_CONNECT_ATTEMPTS must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getHoursEnv reads an hour count, the unit the cache TTL contract is expressed in.
func getHoursEnv(key string, defaultHours int) time.Duration {
	return time.Duration(getIntEnv(key, defaultHours)) * time.Hour
}
