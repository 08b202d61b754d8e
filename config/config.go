package config

import (
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Gateway  GatewayConfig
	Escrow   EscrowConfig
	Internal InternalConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	Issuer       string
	AccessExpiry time.Duration
}

// GatewayConfig points at the external payment gateway used to verify deposits.
type GatewayConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string // HMAC secret for /webhooks/deposit callbacks; empty disables the check
	Timeout       time.Duration
}

type EscrowConfig struct {
	// CommissionRate is the fraction of order value the platform keeps at
	// release time, e.g. 0.05.
	CommissionRate decimal.Decimal
}

// InternalConfig guards the escrow endpoints called by the order service.
type InternalConfig struct {
	APIToken string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8088"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "sokoni:sokoni@tcp(localhost:3306)/sokoni?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			Issuer:       getenv("JWT_ISSUER", "sokoni"),
			AccessExpiry: 15 * time.Minute,
		},
		Gateway: GatewayConfig{
			BaseURL:       getenv("GATEWAY_BASE_URL", ""),
			APIKey:        getenv("GATEWAY_API_KEY", ""),
			WebhookSecret: getenv("GATEWAY_WEBHOOK_SECRET", ""),
			Timeout:       30 * time.Second,
		},
		Escrow: EscrowConfig{
			CommissionRate: loadRate("ESCROW_COMMISSION_RATE", "0.05"),
		},
		Internal: InternalConfig{
			APIToken: getenv("INTERNAL_API_TOKEN", ""),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadRate(key, fallback string) decimal.Decimal {
	raw := getenv(key, fallback)
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("[Config] invalid %s=%q, using %s", key, raw, fallback)
		rate, _ = decimal.NewFromString(fallback)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		log.Printf("[Config] %s=%s out of range [0,1), using %s", key, rate, fallback)
		rate, _ = decimal.NewFromString(fallback)
	}
	return rate
}
