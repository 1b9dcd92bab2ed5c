package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// Recurrence detector
	DetectorLookbackDays int  // history window considered per run
	DetectorGraceDays    int  // extra days past next-expected before deactivation
	AutoDeactivate       bool // deactivate patterns whose expected window lapsed

	// Budget summaries
	TrendWindowMonths int

	// Feature flags, overridable via FEATURE_* env vars.
	Features *Features
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	features := NewFeatures(map[string]bool{
		"detector_auto_deactivate": true,
		"pattern_suggestions":      true,
	})

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		DetectorLookbackDays: getEnvInt("DETECTOR_LOOKBACK_DAYS", 730),
		DetectorGraceDays:    getEnvInt("DETECTOR_GRACE_DAYS", 7),
		AutoDeactivate:       features.IsEnabled("detector_auto_deactivate"),

		TrendWindowMonths: getEnvInt("TREND_WINDOW_MONTHS", 12),

		Features: features,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
