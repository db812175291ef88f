package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Insights  InsightsConfig
	LLM       LLMConfig
	Upstream  UpstreamConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
	// AllowedOrigins feeds the CORS middleware; "*" allows any origin.
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// RunMigrations applies migrations/ at startup (local and dev datastores only).
	RunMigrations  bool
	MigrationsPath string
}

type RedisConfig struct {
	// Host empty disables Redis: no dataset snapshots, no rate limiting.
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

func (c RedisConfig) Enabled() bool { return c.Host != "" }

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RateLimitConfig struct {
	Enabled                  bool
	DefaultRequestsPerMinute int
	BurstMultiplier          float64
	Window                   time.Duration
	KeyPrefix                string
}

// CacheConfig configures the in-process insight cache.
type CacheConfig struct {
	DefaultTTL time.Duration
	// MaxEntries caps the cache with LRU eviction; 0 means unbounded.
	MaxEntries       int
	HealthMaxSize    int
	HealthMinHitRate float64
	HealthMinSamples int
	// CostPerCall is the illustrative per-LLM-call cost behind the savings estimate.
	CostPerCall float64
}

type InsightsConfig struct {
	ClockBucket  time.Duration
	LLMDeadline  time.Duration
	SingleFlight bool
}

type LLMConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	MaxTokens         int
	Temperature       float64
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	// Circuit breaker
	BreakerMaxRequests      int
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold float64
	BreakerMinRequests      int
}

// UpstreamConfig bounds the analytical datastore queries.
type UpstreamConfig struct {
	ProductLimit   int
	ShipmentLimit  int
	QueryTimeout   time.Duration
	SnapshotTTL    time.Duration
	SnapshotPrefix string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "brandbuddy"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			RunMigrations:   getBoolEnv("DB_RUN_MIGRATIONS", false),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", ""),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Enabled:                  getBoolEnv("RATE_LIMIT_ENABLED", true),
			DefaultRequestsPerMinute: getIntEnv("RATE_LIMIT_RPM", 30),
			BurstMultiplier:          getFloatEnv("RATE_LIMIT_BURST", 1.0),
			Window:                   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			KeyPrefix:                getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit:insights"),
		},
		Cache: CacheConfig{
			DefaultTTL:       getDurationEnv("CACHE_DEFAULT_TTL", 20*time.Minute),
			MaxEntries:       getIntEnv("CACHE_MAX_ENTRIES", 500),
			HealthMaxSize:    getIntEnv("CACHE_HEALTH_MAX_SIZE", 100),
			HealthMinHitRate: getFloatEnv("CACHE_HEALTH_MIN_HIT_RATE", 30),
			HealthMinSamples: getIntEnv("CACHE_HEALTH_MIN_SAMPLES", 10),
			CostPerCall:      getFloatEnv("CACHE_COST_PER_CALL", 0.02),
		},
		Insights: InsightsConfig{
			ClockBucket:  getDurationEnv("INSIGHTS_CLOCK_BUCKET", 5*time.Minute),
			LLMDeadline:  getDurationEnv("INSIGHTS_LLM_DEADLINE", 25*time.Second),
			SingleFlight: getBoolEnv("INSIGHTS_SINGLE_FLIGHT", false),
		},
		LLM: LLMConfig{
			BaseURL:                 getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:                  getEnv("LLM_API_KEY", ""),
			Model:                   getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:               getIntEnv("LLM_MAX_TOKENS", 1200),
			Temperature:             getFloatEnv("LLM_TEMPERATURE", 0.3),
			Timeout:                 getDurationEnv("LLM_HTTP_TIMEOUT", 30*time.Second),
			RequestsPerSecond:       getFloatEnv("LLM_REQUESTS_PER_SECOND", 2),
			Burst:                   getIntEnv("LLM_BURST", 4),
			BreakerMaxRequests:      getIntEnv("LLM_BREAKER_MAX_REQUESTS", 1),
			BreakerInterval:         getDurationEnv("LLM_BREAKER_INTERVAL", time.Minute),
			BreakerTimeout:          getDurationEnv("LLM_BREAKER_TIMEOUT", 30*time.Second),
			BreakerFailureThreshold: getFloatEnv("LLM_BREAKER_FAILURE_THRESHOLD", 0.6),
			BreakerMinRequests:      getIntEnv("LLM_BREAKER_MIN_REQUESTS", 5),
		},
		Upstream: UpstreamConfig{
			ProductLimit:   getIntEnv("UPSTREAM_PRODUCT_LIMIT", 5000),
			ShipmentLimit:  getIntEnv("UPSTREAM_SHIPMENT_LIMIT", 10000),
			QueryTimeout:   getDurationEnv("UPSTREAM_QUERY_TIMEOUT", 15*time.Second),
			SnapshotTTL:    getDurationEnv("UPSTREAM_SNAPSHOT_TTL", time.Minute),
			SnapshotPrefix: getEnv("UPSTREAM_SNAPSHOT_PREFIX", "dataset"),
		},
	}

	// Build database DSN
	cfg.Database.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	if cfg.Cache.MaxEntries < 0 {
		return nil, fmt.Errorf("CACHE_MAX_ENTRIES must not be negative, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Insights.LLMDeadline <= 0 {
		return nil, fmt.Errorf("INSIGHTS_LLM_DEADLINE must be positive")
	}

	return cfg, nil
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

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
