package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort         string
	DatabaseURL        string
	GeminiAPIKey       string
	GeminiBaseURL      string
	GeminiModel        string
	GeminiTimeoutSecs  string
	LogLevel           string
	CacheRetentionDays string
}

// GetGeminiTimeout returns the generation call timeout from environment or default.
// The generation call is the only slow operation in the pipeline, so it carries
// an explicit timeout instead of relying on transport defaults.
func (c *Config) GetGeminiTimeout() time.Duration {
	if c.GeminiTimeoutSecs == "" {
		return 30 * time.Second
	}

	secs, err := strconv.Atoi(c.GeminiTimeoutSecs)
	if err != nil || secs <= 0 {
		logrus.Warnf("Invalid GEMINI_TIMEOUT_SECONDS value: %s, using default 30 seconds", c.GeminiTimeoutSecs)
		return 30 * time.Second
	}

	return time.Duration(secs) * time.Second
}

// GetCacheRetention returns how long date-scoped cache rows are kept before
// the retention sweep removes them.
func (c *Config) GetCacheRetention() time.Duration {
	if c.CacheRetentionDays == "" {
		return 30 * 24 * time.Hour
	}

	days, err := strconv.Atoi(c.CacheRetentionDays)
	if err != nil || days <= 0 {
		logrus.Warnf("Invalid CACHE_RETENTION_DAYS value: %s, using default 30 days", c.CacheRetentionDays)
		return 30 * 24 * time.Hour
	}

	return time.Duration(days) * 24 * time.Hour
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiTimeoutSecs:  getEnv("GEMINI_TIMEOUT_SECONDS", "30"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CacheRetentionDays: getEnv("CACHE_RETENTION_DAYS", "30"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
