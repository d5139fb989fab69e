package config

// ShopConfig holds runtime configuration for the storefront API service.
type ShopConfig struct {
	Environment   string
	Addr          string
	DatabaseURL   string
	MigrationsDir string
	SeedProducts  bool

	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadShopConfig constructs a ShopConfig from environment variables.
func LoadShopConfig() ShopConfig {
	return ShopConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("SHOP_ADDR", ":3000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://hostpulse:hostpulse@db:5432/hostpulse?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		SeedProducts:       GetBool("SHOP_SEED_PRODUCTS", true),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
