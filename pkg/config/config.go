package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Env            string
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Recommendation RecommendationConfig
	Cache          CacheConfig
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	OTEL           OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	// TrustedProxies lists the CIDRs whose forwarding headers are believed.
	TrustedProxies []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// RecommendationConfig tunes the recommendation engine.
type RecommendationConfig struct {
	DefaultLimit   int
	MaxLimit       int
	TrendingWindow time.Duration
	// IsolateGenerators turns a failing generator into an empty contribution
	// instead of failing the whole request.
	IsolateGenerators bool
	AsyncPersist      bool
	PersistTimeout    time.Duration
}

// CacheConfig holds vehicle cache settings
type CacheConfig struct {
	VehicleTTL   time.Duration
	WarmInterval time.Duration
}

// RateLimitConfig caps tracking writes per client IP. Zero disables it.
type RateLimitConfig struct {
	TrackPerMinute int
}

// CORSConfig holds allowed origins
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("ENV", "production"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("STORAGE_DRIVER", StorageDriverPostgres),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "rihla"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Recommendation: RecommendationConfig{
			DefaultLimit:      getEnvAsInt("RECOMMEND_DEFAULT_LIMIT", 10),
			MaxLimit:          getEnvAsInt("RECOMMEND_MAX_LIMIT", 50),
			TrendingWindow:    getEnvAsDuration("RECOMMEND_TRENDING_WINDOW", 7*24*time.Hour),
			IsolateGenerators: getEnvAsBool("RECOMMEND_ISOLATE_GENERATORS", false),
			AsyncPersist:      getEnvAsBool("RECOMMEND_ASYNC_PERSIST", false),
			PersistTimeout:    getEnvAsDuration("RECOMMEND_PERSIST_TIMEOUT", 5*time.Second),
		},
		Cache: CacheConfig{
			VehicleTTL:   getEnvAsDuration("VEHICLE_CACHE_TTL", 5*time.Minute),
			WarmInterval: getEnvAsDuration("CACHE_WARM_INTERVAL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			TrackPerMinute: getEnvAsInt("TRACK_RATE_LIMIT", 120),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "rihla-recommendations"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise break the engine at runtime.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Database.Driver)
	}
	if c.Recommendation.DefaultLimit <= 0 {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be positive, got %d", c.Recommendation.DefaultLimit)
	}
	if c.Recommendation.MaxLimit < c.Recommendation.DefaultLimit {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT (%d) must not be below RECOMMEND_DEFAULT_LIMIT (%d)",
			c.Recommendation.MaxLimit, c.Recommendation.DefaultLimit)
	}
	if c.Recommendation.TrendingWindow <= 0 {
		return fmt.Errorf("RECOMMEND_TRENDING_WINDOW must be positive")
	}
	if c.RateLimit.TrackPerMinute < 0 {
		return fmt.Errorf("TRACK_RATE_LIMIT must not be negative")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerAddr returns the listen address
func (c *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
