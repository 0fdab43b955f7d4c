package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestSize        int64         `env:"MAX_REQUEST_SIZE,default=1048576"`

	// database settings - when DATABASE_URL is empty callback events are kept in memory
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`
	RunMigrations       bool          `env:"RUN_MIGRATIONS,default=true"`

	// issuer settings - the app id is stamped into every envelope payload as "iss"
	AppID        string `env:"APP_ID,required=true"`
	WalletRegion string `env:"WALLET_REGION,default=drcn"`

	// key settings - file names are resolved inside KEYS_DIR
	KeysDir          string `env:"KEYS_DIR,default=./keys"`
	SigningKeyFile   string `env:"SIGNING_KEY_FILE,required=true"`
	RecipientKeyFile string `env:"RECIPIENT_KEY_FILE"`
	CallbackKeyFile  string `env:"CALLBACK_KEY_FILE"`
	CallbackJWKSURL  string `env:"CALLBACK_JWKS_URL"`

	// JWK cache settings (used when CALLBACK_JWKS_URL is set)
	JWKCacheMinRefresh time.Duration `env:"JWK_CACHE_MIN_REFRESH,default=10m"`
	JWKCacheMaxRefresh time.Duration `env:"JWK_CACHE_MAX_REFRESH,default=12h"`
	JWKCacheWaitReady  bool          `env:"JWK_CACHE_WAIT_READY,default=false"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

var validRegions = map[string]bool{
	"drcn": true,
	"drru": true,
	"dra":  true,
	"dre":  true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil

}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if cfg.MaxRequestSize < 1 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be at least 1")
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if !validRegions[cfg.WalletRegion] {
		return fmt.Errorf("invalid WALLET_REGION: %s (must be one of drcn, drru, dra, dre)", cfg.WalletRegion)
	}

	if cfg.CallbackJWKSURL != "" {
		if _, err := url.ParseRequestURI(cfg.CallbackJWKSURL); err != nil {
			return fmt.Errorf("CALLBACK_JWKS_URL is not a valid URL: %w", err)
		}
		if cfg.CallbackKeyFile != "" {
			return fmt.Errorf("set CALLBACK_KEY_FILE or CALLBACK_JWKS_URL, not both")
		}
	}

	if cfg.JWKCacheMinRefresh > cfg.JWKCacheMaxRefresh {
		return fmt.Errorf("JWK_CACHE_MIN_REFRESH (%s) cannot be greater than JWK_CACHE_MAX_REFRESH (%s)",
			cfg.JWKCacheMinRefresh, cfg.JWKCacheMaxRefresh)
	}

	return nil
}
