package config

import (
	"os"
	"strings"

	"airsync_server/pkg/apperr"
)

type Config struct {
	Port        string
	Environment string

	// Airmeet
	AirmeetBaseURL     string
	AirmeetAccessKey   string
	AirmeetSecretKey   string
	AirmeetCommunityID string

	// DevRev
	DevRevBaseURL        string
	DevRevAPIToken       string
	DevRevDefaultOwnerID string

	// Webhooks
	WebhookBaseURL string
	AdminToken     string

	// Redis (optional delivery dedupe)
	RedisURL string

	// Identity
	GenericDomains []string

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Airmeet
		AirmeetBaseURL:     getEnv("AIRMEET_BASE_URL", "https://api-gateway.airmeet.com/prod"),
		AirmeetAccessKey:   getEnv("AIRMEET_ACCESS_KEY", ""),
		AirmeetSecretKey:   getEnv("AIRMEET_SECRET_KEY", ""),
		AirmeetCommunityID: getEnv("AIRMEET_COMMUNITY_ID", ""),

		// DevRev
		DevRevBaseURL:        getEnv("DEVREV_BASE_URL", "https://api.devrev.ai"),
		DevRevAPIToken:       getEnv("DEVREV_API_TOKEN", ""),
		DevRevDefaultOwnerID: getEnv("DEVREV_DEFAULT_OWNER_ID", ""),

		// Webhooks
		WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", ""),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Identity
		GenericDomains: getEnvSlice("GENERIC_DOMAINS", nil),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", nil),
	}

	if cfg.AirmeetAccessKey == "" || cfg.AirmeetSecretKey == "" {
		return nil, apperr.ConfigError("AIRMEET_ACCESS_KEY and AIRMEET_SECRET_KEY are required")
	}
	if cfg.DevRevAPIToken == "" {
		return nil, apperr.ConfigError("DEVREV_API_TOKEN is required")
	}

	return cfg, nil
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

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
