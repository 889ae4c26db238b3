package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service, read from the environment.
type Config struct {
	Environment string
	Port        string
	DatabaseURL string

	// OrgID is the tenant every request falls back to when the caller does
	// not send an explicit X-Org-ID header.
	OrgID string

	StaticTokens []string
	JWTSecret    string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// PendingHoldTTL bounds how long a PENDING booking keeps blocking slots.
	// Zero disables expiry.
	PendingHoldTTL time.Duration
}

// Load reads configuration from environment variables, loading a .env file
// first outside production.
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("no .env file loaded: %v", err)
		}
	}

	cfg := &Config{
		Environment:        env,
		Port:               os.Getenv("PORT"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		OrgID:              os.Getenv("ORG_ID"),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_HMAC_SECRET")),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		PendingHoldTTL:     30 * time.Minute,
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.OrgID == "" {
		cfg.OrgID = "default"
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL required")
	}

	for _, t := range strings.Split(os.Getenv("STATIC_TOKENS"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			cfg.StaticTokens = append(cfg.StaticTokens, t)
		}
	}

	if s := os.Getenv("PENDING_HOLD_TTL"); s != "" {
		ttl, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid PENDING_HOLD_TTL: %w", err)
		}
		cfg.PendingHoldTTL = ttl
	}

	return cfg, nil
}
