package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Cache     CacheConfig     `json:"cache"`
	RabbitMQ  RabbitMQConfig  `json:"rabbitmq"`
	Auth      AuthConfig      `json:"auth"`
	NAVSource NAVSourceConfig `json:"nav_source"`
	Scheduler SchedulerConfig `json:"scheduler"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logger    LoggerConfig    `json:"logger"`
	Analytics AnalyticsConfig `json:"analytics"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port           int    `json:"port"`
	Host           string `json:"host"`
	Environment    string `json:"environment"`
	ReadTimeout    int    `json:"read_timeout"`
	WriteTimeout   int    `json:"write_timeout"`
	MaxHeaderBytes int    `json:"max_header_bytes"`
}

// DatabaseConfig represents MongoDB configuration
type DatabaseConfig struct {
	URI            string `json:"uri"`
	Database       string `json:"database"`
	MaxPoolSize    int    `json:"max_pool_size"`
	MinPoolSize    int    `json:"min_pool_size"`
	MaxIdleTime    int    `json:"max_idle_time"`
	ConnectTimeout int    `json:"connect_timeout"`
	SocketTimeout  int    `json:"socket_timeout"`
	ReplicaSet     string `json:"replica_set"`
}

// CacheConfig represents Redis cache configuration
type CacheConfig struct {
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	Password           string        `json:"password"`
	DB                 int           `json:"db"`
	MaxRetries         int           `json:"max_retries"`
	PoolSize           int           `json:"pool_size"`
	MinIdleConnections int           `json:"min_idle_connections"`
	DialTimeout        time.Duration `json:"dial_timeout"`
	ReadTimeout        time.Duration `json:"read_timeout"`
	WriteTimeout       time.Duration `json:"write_timeout"`
	PoolTimeout        time.Duration `json:"pool_timeout"`

	// TTL settings per analysis type
	FundTTL       time.Duration `json:"fund_ttl"`
	NAVTTL        time.Duration `json:"nav_ttl"`
	ScoreTTL      time.Duration `json:"score_ttl"`
	RiskTTL       time.Duration `json:"risk_ttl"`
	SIPTTL        time.Duration `json:"sip_ttl"`
	OverlapTTL    time.Duration `json:"overlap_ttl"`
	PredictionTTL time.Duration `json:"prediction_ttl"`
}

// RabbitMQConfig represents RabbitMQ configuration
type RabbitMQConfig struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	VHost    string `json:"vhost"`

	// Exchange and queues
	NAVExchange     string `json:"nav_exchange"`
	NAVQueue        string `json:"nav_queue"`
	NAVRoutingKey   string `json:"nav_routing_key"`
	ScoreExchange   string `json:"score_exchange"`
	ScoreRoutingKey string `json:"score_routing_key"`

	// Consumer settings
	ConsumerTag   string `json:"consumer_tag"`
	AutoAck       bool   `json:"auto_ack"`
	PrefetchCount int    `json:"prefetch_count"`

	// Connection settings
	Heartbeat            time.Duration `json:"heartbeat"`
	ConnectionTimeout    time.Duration `json:"connection_timeout"`
	MaxReconnectAttempts int           `json:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `json:"reconnect_delay"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	JWTSecret   string `json:"jwt_secret"`
	RequireAuth bool   `json:"require_auth"`
	AdminSecret string `json:"admin_secret"`
}

// NAVSourceConfig represents the upstream NAV data provider configuration
type NAVSourceConfig struct {
	BaseURL    string        `json:"base_url"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`
	RateLimit  int           `json:"rate_limit"`
}

// SchedulerConfig represents background job scheduling configuration
type SchedulerConfig struct {
	Enabled            bool          `json:"enabled"`
	NAVRefreshInterval string        `json:"nav_refresh_interval"` // Cron expression
	ScoreInterval      string        `json:"score_interval"`       // Cron expression
	CleanupInterval    string        `json:"cleanup_interval"`     // Cron expression
	TimeZone           string        `json:"timezone"`
	JobTimeout         time.Duration `json:"job_timeout"`
	SnapshotRetention  int           `json:"snapshot_retention_days"`
}

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	RequestsPerMin  int           `json:"requests_per_minute"`
	BurstSize       int           `json:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// LoggerConfig represents logging configuration
type LoggerConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	Filename   string `json:"filename"`
	MaxSize    int    `json:"max_size"`
	MaxAge     int    `json:"max_age"`
	MaxBackups int    `json:"max_backups"`
	Compress   bool   `json:"compress"`
}

// AnalyticsConfig represents the market assumptions used by the
// calculation engines
type AnalyticsConfig struct {
	RiskFreeRate  float64 `json:"risk_free_rate"`
	MarketReturn  float64 `json:"market_return"`
	TradingDays   int     `json:"trading_days"`
	VaRConfidence float64 `json:"var_confidence"`
	MinDataPoints int     `json:"min_data_points"`
}

// Load loads configuration from environment variables
func Load() *Config {
	// Load .env file if exists
	godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8086),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ReadTimeout:    getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout:   getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			MaxHeaderBytes: getEnvInt("SERVER_MAX_HEADER_BYTES", 1048576),
		},

		Database: DatabaseConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "fund_analytics"),
			MaxPoolSize:    getEnvInt("MONGODB_MAX_POOL_SIZE", 100),
			MinPoolSize:    getEnvInt("MONGODB_MIN_POOL_SIZE", 5),
			MaxIdleTime:    getEnvInt("MONGODB_MAX_IDLE_TIME", 300),
			ConnectTimeout: getEnvInt("MONGODB_CONNECT_TIMEOUT", 10),
			SocketTimeout:  getEnvInt("MONGODB_SOCKET_TIMEOUT", 30),
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
		},

		Cache: CacheConfig{
			Host:               getEnv("REDIS_HOST", "localhost"),
			Port:               getEnvInt("REDIS_PORT", 6379),
			Password:           getEnv("REDIS_PASSWORD", ""),
			DB:                 getEnvInt("REDIS_DB", 0),
			MaxRetries:         getEnvInt("REDIS_MAX_RETRIES", 3),
			PoolSize:           getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConnections: getEnvInt("REDIS_MIN_IDLE_CONNECTIONS", 5),
			DialTimeout:        getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:        getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:       getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:        getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
			FundTTL:            getEnvDuration("CACHE_FUND_TTL", 30*time.Minute),
			NAVTTL:             getEnvDuration("CACHE_NAV_TTL", time.Hour),
			ScoreTTL:           getEnvDuration("CACHE_SCORE_TTL", 6*time.Hour),
			RiskTTL:            getEnvDuration("CACHE_RISK_TTL", 6*time.Hour),
			SIPTTL:             getEnvDuration("CACHE_SIP_TTL", 12*time.Hour),
			OverlapTTL:         getEnvDuration("CACHE_OVERLAP_TTL", 12*time.Hour),
			PredictionTTL:      getEnvDuration("CACHE_PREDICTION_TTL", 3*time.Hour),
		},

		RabbitMQ: RabbitMQConfig{
			Enabled:              getEnvBool("RABBITMQ_ENABLED", true),
			URL:                  getEnv("RABBITMQ_URL", ""),
			Host:                 getEnv("RABBITMQ_HOST", "localhost"),
			Port:                 getEnvInt("RABBITMQ_PORT", 5672),
			Username:             getEnv("RABBITMQ_USERNAME", "guest"),
			Password:             getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:                getEnv("RABBITMQ_VHOST", "/"),
			NAVExchange:          getEnv("RABBITMQ_NAV_EXCHANGE", "nav"),
			NAVQueue:             getEnv("RABBITMQ_NAV_QUEUE", "analytics.nav"),
			NAVRoutingKey:        getEnv("RABBITMQ_NAV_ROUTING_KEY", "nav.updated"),
			ScoreExchange:        getEnv("RABBITMQ_SCORE_EXCHANGE", "scores"),
			ScoreRoutingKey:      getEnv("RABBITMQ_SCORE_ROUTING_KEY", "score.updated"),
			ConsumerTag:          getEnv("RABBITMQ_CONSUMER_TAG", "fund-analytics"),
			AutoAck:              getEnvBool("RABBITMQ_AUTO_ACK", false),
			PrefetchCount:        getEnvInt("RABBITMQ_PREFETCH_COUNT", 10),
			Heartbeat:            getEnvDuration("RABBITMQ_HEARTBEAT", 30*time.Second),
			ConnectionTimeout:    getEnvDuration("RABBITMQ_CONNECTION_TIMEOUT", 30*time.Second),
			MaxReconnectAttempts: getEnvInt("RABBITMQ_MAX_RECONNECT_ATTEMPTS", 5),
			ReconnectDelay:       getEnvDuration("RABBITMQ_RECONNECT_DELAY", 5*time.Second),
		},

		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "default-secret-key"),
			RequireAuth: getEnvBool("REQUIRE_AUTH", false),
			AdminSecret: getEnv("ADMIN_SECRET", "admin-secret-key"),
		},

		NAVSource: NAVSourceConfig{
			BaseURL:    getEnv("NAV_SOURCE_URL", "https://api.mfapi.in"),
			Timeout:    getEnvDuration("NAV_SOURCE_TIMEOUT", 30*time.Second),
			MaxRetries: getEnvInt("NAV_SOURCE_MAX_RETRIES", 3),
			RetryDelay: getEnvDuration("NAV_SOURCE_RETRY_DELAY", time.Second),
			RateLimit:  getEnvInt("NAV_SOURCE_RATE_LIMIT", 60),
		},

		Scheduler: SchedulerConfig{
			Enabled:            getEnvBool("SCHEDULER_ENABLED", true),
			NAVRefreshInterval: getEnv("SCHEDULER_NAV_REFRESH_INTERVAL", "0 1 * * *"),
			ScoreInterval:      getEnv("SCHEDULER_SCORE_INTERVAL", "0 3 * * *"),
			CleanupInterval:    getEnv("SCHEDULER_CLEANUP_INTERVAL", "0 4 * * 0"),
			TimeZone:           getEnv("SCHEDULER_TIMEZONE", "UTC"),
			JobTimeout:         getEnvDuration("SCHEDULER_JOB_TIMEOUT", 30*time.Minute),
			SnapshotRetention:  getEnvInt("SCHEDULER_SNAPSHOT_RETENTION_DAYS", 365),
		},

		RateLimit: RateLimitConfig{
			Enabled:         getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin:  getEnvInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 120),
			BurstSize:       getEnvInt("RATE_LIMIT_BURST_SIZE", 20),
			CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 10*time.Minute),
		},

		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILENAME", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},

		Analytics: AnalyticsConfig{
			RiskFreeRate:  getEnvFloat("ANALYTICS_RISK_FREE_RATE", 6.5),
			MarketReturn:  getEnvFloat("ANALYTICS_MARKET_RETURN", 12.0),
			TradingDays:   getEnvInt("ANALYTICS_TRADING_DAYS", 252),
			VaRConfidence: getEnvFloat("ANALYTICS_VAR_CONFIDENCE", 0.95),
			MinDataPoints: getEnvInt("ANALYTICS_MIN_DATA_POINTS", 30),
		},
	}

	return config
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
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
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URI == "" {
		return fmt.Errorf("database URI is required")
	}

	if c.Auth.RequireAuth && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "default-secret-key") {
		logrus.Warn("Using default JWT secret key, this is not recommended for production")
	}

	if c.NAVSource.BaseURL == "" {
		return fmt.Errorf("NAV source URL is required")
	}

	if c.Analytics.VaRConfidence <= 0 || c.Analytics.VaRConfidence >= 1 {
		return fmt.Errorf("VaR confidence must be between 0 and 1")
	}

	if c.Analytics.TradingDays <= 0 {
		return fmt.Errorf("trading days must be positive")
	}

	return nil
}

// RedisAddr builds the host:port address for the cache client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Cache.Host, c.Cache.Port)
}

// AMQPURL builds the broker URL from discrete fields when URL is unset
func (c *RabbitMQConfig) AMQPURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", c.Username, c.Password, c.Host, c.Port, c.VHost)
}
