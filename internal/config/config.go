package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// Provider credentials; an empty key leaves that provider unconfigured
	// and its models unresolvable.
	AnthropicAPIKey  string
	OpenAIAPIKey     string
	OpenRouterAPIKey string
	// DefaultModel is assigned to conversations created without an
	// explicit model id.
	DefaultModel string
	// TitleModel is the model used for title synthesis. Falls back to
	// DefaultModel when unset.
	TitleModel string
	// Empty-conversation janitor.
	CleanupInterval time.Duration
	CleanupMaxAge   time.Duration
	// Debug enables debug-level logging. Defaults to true outside prod.
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	defaultModel := getEnv("DEFAULT_MODEL", "claude-haiku")

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWKSURL:          getEnv("JWKS_URL", ""),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:      getTablePrefix(env),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		DefaultModel:     defaultModel,
		TitleModel:       getEnv("TITLE_MODEL", defaultModel),
		CleanupInterval:  getDuration("CLEANUP_INTERVAL", time.Hour),
		CleanupMaxAge:    getDuration("CLEANUP_MAX_AGE", 24*time.Hour),
		// Debug defaults to true outside prod
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are taken as seconds.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
