// config/config.go
package config

import (
	"os"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Environment string
	Port        string
	DatabaseURL string
	RedisURL    string

	// Engine Settings
	DependencyTimeoutSeconds int // bound on external store calls
	CASRetries               int // membership compare-and-set retry budget
	LocationRetentionDays    int // raw report retention

	// App Settings
	RateLimitRequests      int
	RateLimitWindowMinutes int
}

func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "mongodb://localhost:27017/geotrack"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),

		// Engine
		DependencyTimeoutSeconds: getEnvAsInt("DEPENDENCY_TIMEOUT_SECONDS", 5),
		CASRetries:               getEnvAsInt("CAS_RETRIES", 3),
		LocationRetentionDays:    getEnvAsInt("LOCATION_RETENTION_DAYS", 30),

		// App Settings
		RateLimitRequests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindowMinutes: getEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 1),
	}
}

func InitRedis(cfg *Config) *redis.Client {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatal("Invalid Redis URL: ", err)
	}

	client := redis.NewClient(opt)
	logrus.Info("Connected to Redis")

	return client
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
