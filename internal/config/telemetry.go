package config

import "time"

// TelemetryConfig holds runtime configuration for the telemetry API service.
type TelemetryConfig struct {
	Environment   string
	Addr          string
	DatabaseURL   string
	MigrationsDir string

	AnalyticsWindow  time.Duration
	ComparisonWindow time.Duration
	TopInteractions  int

	RollupBucketSpan time.Duration
	RollupFlushEvery time.Duration

	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadTelemetryConfig constructs a TelemetryConfig from environment variables.
func LoadTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("TELEMETRY_ADDR", ":3001"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://hostpulse:hostpulse@db:5432/hostpulse?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		AnalyticsWindow:    time.Duration(GetInt("ANALYTICS_WINDOW_HOURS", 168)) * time.Hour,
		ComparisonWindow:   time.Duration(GetInt("COMPARISON_WINDOW_HOURS", 24)) * time.Hour,
		TopInteractions:    GetInt("ANALYTICS_TOP_INTERACTIONS", 10),
		RollupBucketSpan:   time.Duration(GetInt("ROLLUP_BUCKET_SECONDS", 60)) * time.Second,
		RollupFlushEvery:   time.Duration(GetInt("ROLLUP_FLUSH_SECONDS", 30)) * time.Second,
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
