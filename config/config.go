package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	JWT         JWTConfig
	Store       StoreConfig
	GAS         GASConfig
	Referral    ReferralConfig
	Attribution AttributionConfig
	Worker      WorkerConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// StoreConfig points at the sheet-backed REST API that acts as the system of
// record. The store is eventually consistent and offers no transactions, so
// everything here is tuned for retries rather than correctness guarantees.
type StoreConfig struct {
	BaseURL     string
	Timeout     time.Duration
	RetryBase   time.Duration
	MaxAttempts int
}

// GASConfig is the action-based RPC endpoint used as the alternate backend for
// referral stats and points history. Empty URL disables it.
type GASConfig struct {
	URL     string
	Timeout time.Duration
}

type ReferralConfig struct {
	DiscountPercent   int
	RewardPoints      int64
	CodeAttempts      int
	ShareBaseURL      string
	FirstOrderRetries int
	FirstOrderDelay   time.Duration
}

// AttributionConfig controls the device-local referral attribution cache.
type AttributionConfig struct {
	Path string
	TTL  time.Duration
}

type WorkerConfig struct {
	Enabled           bool
	ReconcileInterval time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8090"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "gosembako",
		},
		Store: StoreConfig{
			BaseURL:     getenv("SHEETDB_API_URL", "https://sheetdb.io/api/v1/2nu6gqeb0w4ku"),
			Timeout:     30 * time.Second,
			RetryBase:   time.Second,
			MaxAttempts: 3,
		},
		GAS: GASConfig{
			URL:     os.Getenv("GAS_URL"),
			Timeout: 30 * time.Second,
		},
		Referral: ReferralConfig{
			DiscountPercent:   getenvInt("REFERRAL_DISCOUNT_PERCENT", 10),
			RewardPoints:      int64(getenvInt("REFERRAL_REWARD_POINTS", 10000)),
			CodeAttempts:      5,
			ShareBaseURL:      getenv("SHARE_BASE_URL", "https://paketsembako.com"),
			FirstOrderRetries: 3,
			FirstOrderDelay:   time.Second,
		},
		Attribution: AttributionConfig{
			Path: getenv("ATTRIBUTION_PATH", "attribution.json"),
			TTL:  30 * 24 * time.Hour,
		},
		Worker: WorkerConfig{
			Enabled:           getenv("RECONCILE_ENABLED", "true") == "true",
			ReconcileInterval: 5 * time.Minute,
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
