package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the application settings.
type Config struct {
	Port         string
	Env          string
	MongoURI     string
	DBName       string
	Transactions bool
	JWTSecret    string
	TokenExpiry  time.Duration
	FrontendURL  string
	StaticDir    string

	StreamAPIKey    string
	StreamAPISecret string
	StreamBaseURL   string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	UnreadCacheTTL time.Duration

	AMQPURL      string
	AMQPExchange string

	OutboxSchedule string
	RateLimitRPS   int
	RateLimitBurst int

	LogLevel string
	LogFile  string
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment")
	}

	cfg := &Config{
		Port:         getEnv("PORT", "5001"),
		Env:          getEnv("APP_ENV", "development"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:       getEnv("MONGO_DB", "streamify"),
		Transactions: getEnvBool("MONGO_TRANSACTIONS", false),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		TokenExpiry:  getEnvDuration("TOKEN_EXPIRY", 30*24*time.Hour),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
		StaticDir:    getEnv("STATIC_DIR", ""),

		StreamAPIKey:    getEnv("STREAM_API_KEY", ""),
		StreamAPISecret: getEnv("STREAM_API_SECRET", ""),
		StreamBaseURL:   getEnv("STREAM_BASE_URL", "https://chat.stream-io-api.com"),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		UnreadCacheTTL: getEnvDuration("UNREAD_CACHE_TTL", 30*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "social.events"),

		OutboxSchedule: getEnv("OUTBOX_SCHEDULE", "@every 1m"),
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			logrus.Fatal("JWT_SECRET must be set in production")
		}
		logrus.Warn("JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg
}

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
		logrus.WithField("key", key).Warn("Ignoring malformed integer setting")
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithField("key", key).Warn("Ignoring malformed boolean setting")
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithField("key", key).Warn("Ignoring malformed duration setting")
	}
	return defaultValue
}
