package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=5000"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=1h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// CORSAllowOrigins is comma separated; empty disables CORS headers.
	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Stripe StripeConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=class_booking"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type StripeConfig struct {
	SecretKey string `env:"STRIPE_SECRET_KEY"`
	BaseURL   string `env:"STRIPE_BASE_URL,  default=https://api.stripe.com"`
	Currency  string `env:"STRIPE_CURRENCY,  default=usd"`
}

// IsDevelopment reports whether human-friendly defaults such as pretty logs
// should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev" || c.Env == "local"
}

// Load reads a .env file when one exists and then the process environment.
// It panics when the configuration is invalid.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom resolves the configuration from lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return &cfg, nil
}
