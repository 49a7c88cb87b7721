package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Stripe    StripeConfig
	Credits   CreditsConfig
	RateLimit RateLimitConfig
	Cleanup   CleanupConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,  default=semantic_pilot"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	// Addr left empty disables Redis; rate limiting falls back to the
	// process-local counter store.
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	PriceIDPro    string `env:"STRIPE_PRICE_PRO"`
	FrontendURL   string `env:"FRONTEND_URL, default=https://semanticpilot.com"`
}

type CreditsConfig struct {
	Starting int64 `env:"CREDITS_STARTING, default=100"`
	ProBonus int64 `env:"CREDITS_PRO_BONUS, default=1000"`
	Reset    int64 `env:"CREDITS_RESET, default=50"`
}

type RateLimitConfig struct {
	Requests int64         `env:"RATE_LIMIT_REQUESTS, default=60"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW,   default=1m"`
}

type CleanupConfig struct {
	HistoryCap   int64 `env:"HISTORY_CAP,    default=20"`
	SweepWorkers int   `env:"CLEANUP_WORKERS, default=8"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
