package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Local profile cache
	CachePath string

	// Profile sync
	SyncDebounce time.Duration

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Statement feed (bank webhook) API key; feed endpoints are disabled
	// when empty.
	FeedAPIKey string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "finresolve"),
		DBPassword: getEnv("DB_PASSWORD", "finresolve"),
		DBName:     getEnv("DB_NAME", "finresolve"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Local profile cache
		CachePath: getEnv("CACHE_PATH", "finresolve-cache.db"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// Statement feed
		FeedAPIKey: getEnv("FEED_API_KEY", ""),
	}

	// Parse sync debounce window
	debounceStr := getEnv("SYNC_DEBOUNCE", "1s")
	debounce, err := time.ParseDuration(debounceStr)
	if err != nil {
		log.Printf("Warning: invalid SYNC_DEBOUNCE value '%s', falling back to 1s\n", debounceStr)
		debounce = time.Second
	}
	config.SyncDebounce = debounce

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
