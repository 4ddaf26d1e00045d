package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process-wide settings for the order/payment/staff-portal
// core. Every field is env-driven with a sane default, following the
// teacher's getEnv/getEnvInt pattern.
type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Database configuration
	DatabaseURL string

	// Application settings
	RequestTimeout time.Duration

	// Pagination defaults
	DefaultPageSize int
	MaxPageSize     int

	// Merchant processor-secret encryption passphrase (pkg/secret).
	MerchantSecretPassphrase string

	// Payment processor HTTP endpoints, keyed by Charge3partyKind.
	StripeEndpoint string
	PaypalEndpoint string

	// RPC transport (outbound refund-sync pull requests).
	RPCBaseURL string
	RPCUsrID   uint32

	// Discard-unpaid sweep (§4.5).
	DiscardUnpaidInterval   time.Duration
	DiscardUnpaidBatchLimit int

	// Refund-sync pull loop (§4.7) — floor enforced at MIN_SECS_INTVL_REQ (§6).
	RefundSyncInterval time.Duration

	// Order-sync advisory lock TTL (§5).
	OrderSyncLockTTL time.Duration

	// Minimum interval between accepted create-order requests from a single
	// client IP (internal/middleware.RateLimiter, buyer-facing route only).
	CreateOrderRateLimitInterval time.Duration

	// Logging
	LogLevel string
}

// Load reads a .env file if present (godotenv, no-op if missing) then
// resolves Config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                     getEnv("PORT", "3001"),
		Environment:              getEnv("ENVIRONMENT", "development"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RequestTimeout:           time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		DefaultPageSize:          getEnvInt("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:              getEnvInt("MAX_PAGE_SIZE", 100),
		MerchantSecretPassphrase: getEnv("MERCHANT_SECRET_PASSPHRASE", ""),
		StripeEndpoint:           getEnv("STRIPE_ENDPOINT", ""),
		PaypalEndpoint:           getEnv("PAYPAL_ENDPOINT", ""),
		RPCBaseURL:               getEnv("RPC_BASE_URL", "http://localhost:8090"),
		RPCUsrID:                 uint32(getEnvInt("RPC_USR_ID", 0)),
		DiscardUnpaidInterval:    time.Duration(getEnvInt("DISCARD_UNPAID_INTERVAL_SECONDS", 60)) * time.Second,
		DiscardUnpaidBatchLimit:  getEnvInt("DISCARD_UNPAID_BATCH_LIMIT", 500),
		RefundSyncInterval:       time.Duration(getEnvInt("REFUND_SYNC_INTERVAL_SECONDS", 30)) * time.Second,
		OrderSyncLockTTL:         time.Duration(getEnvInt("ORDER_SYNC_LOCK_TTL_SECONDS", 30)) * time.Second,
		CreateOrderRateLimitInterval: time.Duration(getEnvInt("CREATE_ORDER_RATE_LIMIT_MILLIS", 200)) * time.Millisecond,
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.MerchantSecretPassphrase == "" {
		return fmt.Errorf("MERCHANT_SECRET_PASSPHRASE is required")
	}
	if len(c.MerchantSecretPassphrase) < 16 {
		return fmt.Errorf("MERCHANT_SECRET_PASSPHRASE must be at least 16 characters long")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
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
	}
	return defaultValue
}
