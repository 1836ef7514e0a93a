package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Env      string
	LogLevel string
	Addr     string

	Store       string
	DatabaseURL string
	DBTimeout   time.Duration

	JWTSecret string

	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration

	// CheckoutMaxConcurrent bounds the catalog lookups made while validating one checkout.
	CheckoutMaxConcurrent int
}

// Load reads the process environment, after merging a local .env file when present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:                   getenv("APP_ENV", "development"),
		LogLevel:              getenv("LOG_LEVEL", "info"),
		Addr:                  getenv("MARKET_ADDR", ":8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		DBTimeout:             getDuration("DB_TIMEOUT", 5*time.Second),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		LockTTL:               getDuration("LOCK_TTL", 30*time.Second),
		CheckoutMaxConcurrent: getInt("CHECKOUT_MAX_CONCURRENT", 10),
	}

	cfg.Store = os.Getenv("STORE")
	if cfg.Store == "" {
		if cfg.DatabaseURL != "" {
			cfg.Store = StorePostgres
		} else {
			cfg.Store = StoreMemory
		}
	}
	return cfg
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
