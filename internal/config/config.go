package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string

	// Store
	StoreBackend string // "postgres" or "memory"
	DatabaseURL  string
	StoreTimeout time.Duration

	// Supabase auth
	SupabaseURL     string
	SupabaseAnonKey string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json

	// Dev-only escape hatch: requests without a bearer token proceed as
	// DevUserID instead of failing 401. Never enable in production.
	AuthOptional bool
	DevUserID    string

	// Completion provider
	Provider        string
	Model           string
	AnthropicAPIKey string
	GenerateTimeout time.Duration
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		StoreBackend: getEnv("STORE_BACKEND", "postgres"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		StoreTimeout: getDuration("STORE_TIMEOUT", 5*time.Second),

		SupabaseURL:     supabaseURL,
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWKSURL: jwksURL,

		AuthOptional: env != "prod" && getBool("AUTH_OPTIONAL", false),
		DevUserID:    getEnv("DEV_USER_ID", "dev-user"),

		Provider:        getEnv("PROVIDER", "anthropic"),
		Model:           getEnv("MODEL", "claude-haiku-4-5-20251001"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GenerateTimeout: getDuration("GENERATE_TIMEOUT", 60*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
