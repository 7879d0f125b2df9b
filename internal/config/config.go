package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Calculator
	CalculatorRateLimit int
	FinancingConfigPath string

	// Redis quote cache
	Redis RedisConfig

	// S3 Storage for schedule exports
	S3 S3Config
}

// RedisConfig holds the calculator cache connection settings
type RedisConfig struct {
	Addr     string // Empty disables the cache
	Password string
	DB       int
	TTL      time.Duration
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string // Empty disables schedule exports
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	rateLimit, err := getEnvInt("CALCULATOR_RATE_LIMIT", 60)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	redisTTL, err := time.ParseDuration(getEnv("REDIS_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_TTL must be a duration: %w", err)
	}

	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		Auth0Domain:         getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:       getEnv("AUTH0_AUDIENCE", ""),
		Port:                getEnv("PORT", "8080"),
		CORSOrigins:         strings.Split(getEnv("CORS_ORIGINS", "http://localhost:4200"), ","),
		Env:                 getEnv("ENV", "development"),
		CalculatorRateLimit: rateLimit,
		FinancingConfigPath: getEnv("FINANCING_CONFIG", ""),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTL:      redisTTL,
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.CalculatorRateLimit <= 0 {
		return fmt.Errorf("CALCULATOR_RATE_LIMIT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
