package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Cache / lock backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Provider credentials and endpoints
	OpenExchangeRatesAppID string
	OpenExchangeRatesURL   string
	ECBFeedURL             string
	CurrencyLayerAccessKey string
	CurrencyLayerURL       string
	DefaultProvider        string

	// Refresh policy
	CacheTTL        time.Duration
	StaleWindow     time.Duration
	LockTTL         time.Duration
	ProviderTimeout time.Duration
	RefreshInterval time.Duration
	RefreshStagger  time.Duration
	BaseCurrencies  []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("OPEN_EXCHANGE_RATES_APP_ID", "")
	viper.SetDefault("OPEN_EXCHANGE_RATES_URL", "https://openexchangerates.org/api")
	viper.SetDefault("ECB_FEED_URL", "https://www.ecb.europa.eu/stats/eurofxref")
	viper.SetDefault("CURRENCY_LAYER_ACCESS_KEY", "")
	viper.SetDefault("CURRENCY_LAYER_URL", "https://api.currencylayer.com")
	viper.SetDefault("FX_DEFAULT_PROVIDER", "openexchangerates")
	viper.SetDefault("FX_CACHE_TTL", "1h")
	viper.SetDefault("FX_STALE_WINDOW", "5m")
	viper.SetDefault("FX_LOCK_TTL", "60s")
	viper.SetDefault("FX_PROVIDER_TIMEOUT", "30s")
	viper.SetDefault("FX_REFRESH_INTERVAL", "5m")
	viper.SetDefault("FX_REFRESH_STAGGER", "30s")
	viper.SetDefault("FX_BASE_CURRENCIES", "USD,EUR,GBP")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL not set. Rate history persistence is disabled.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		log.Println("Warning: REDIS_ADDR not set. Falling back to the in-process cache/lock; this breaks the multi-instance exclusion guarantee and is only safe for single-instance deployments.")
	}
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")

	cfg.OpenExchangeRatesAppID = viper.GetString("OPEN_EXCHANGE_RATES_APP_ID")
	if cfg.OpenExchangeRatesAppID == "" {
		log.Println("Warning: OPEN_EXCHANGE_RATES_APP_ID not set. The primary provider will serve the fixed mock rate table.")
	}
	cfg.OpenExchangeRatesURL = viper.GetString("OPEN_EXCHANGE_RATES_URL")
	cfg.ECBFeedURL = viper.GetString("ECB_FEED_URL")
	cfg.CurrencyLayerAccessKey = viper.GetString("CURRENCY_LAYER_ACCESS_KEY")
	if cfg.CurrencyLayerAccessKey == "" {
		log.Println("Warning: CURRENCY_LAYER_ACCESS_KEY not set. Refreshes targeting the currencylayer provider will fail.")
	}
	cfg.CurrencyLayerURL = viper.GetString("CURRENCY_LAYER_URL")
	cfg.DefaultProvider = viper.GetString("FX_DEFAULT_PROVIDER")

	cfg.CacheTTL = parseDurationOrDefault("FX_CACHE_TTL", time.Hour)
	cfg.StaleWindow = parseDurationOrDefault("FX_STALE_WINDOW", 5*time.Minute)
	cfg.LockTTL = parseDurationOrDefault("FX_LOCK_TTL", 60*time.Second)
	cfg.ProviderTimeout = parseDurationOrDefault("FX_PROVIDER_TIMEOUT", 30*time.Second)
	cfg.RefreshInterval = parseDurationOrDefault("FX_REFRESH_INTERVAL", 5*time.Minute)
	cfg.RefreshStagger = parseDurationOrDefault("FX_REFRESH_STAGGER", 30*time.Second)

	if cfg.ProviderTimeout >= cfg.LockTTL {
		// The provider timeout is the bound that keeps a hung fetch from
		// outliving its lock; a longer timeout would reopen the window
		// where two fetches run for the same base currency.
		log.Printf("Warning: FX_PROVIDER_TIMEOUT (%s) >= FX_LOCK_TTL (%s). Capping provider timeout to half the lock TTL.\n", cfg.ProviderTimeout, cfg.LockTTL)
		cfg.ProviderTimeout = cfg.LockTTL / 2
	}

	for _, code := range strings.Split(viper.GetString("FX_BASE_CURRENCIES"), ",") {
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) == 3 {
			cfg.BaseCurrencies = append(cfg.BaseCurrencies, code)
		} else if code != "" {
			log.Printf("Warning: Ignoring invalid base currency code %q in FX_BASE_CURRENCIES.\n", code)
		}
	}
	if len(cfg.BaseCurrencies) == 0 {
		cfg.BaseCurrencies = []string{"USD", "EUR", "GBP"}
	}

	return cfg, nil
}

func parseDurationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
