package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Netflix/go-env"
)

// ClientEnvironment holds the settings used by the walletpass CLI.
// The wallet server REST settings (APP_SECRET, TOKEN_URL, WALLET_SERVER_BASE_URL) are only used here, the server never calls the wallet server.
// Nothing is required up front: commands that talk to the wallet server or build envelopes
// check the values they need with RequireWalletServer / RequireSigner.
type ClientEnvironment struct {
	Environment string `env:"ENVIRONMENT,default=dev"`
	LogLevel    string `env:"LOG_LEVEL,default=warn"`

	AppID               string        `env:"APP_ID"`
	AppSecret           string        `env:"APP_SECRET"`
	TokenURL            string        `env:"TOKEN_URL,default=https://oauth-login.cloud.huawei.com/oauth2/v3/token"`
	WalletServerBaseURL string        `env:"WALLET_SERVER_BASE_URL"`
	WalletRegion        string        `env:"WALLET_REGION,default=drcn"`
	HTTPClientTimeout   time.Duration `env:"HTTP_CLIENT_TIMEOUT,default=30s"`

	KeysDir          string `env:"KEYS_DIR,default=./keys"`
	SigningKeyFile   string `env:"SIGNING_KEY_FILE"`
	RecipientKeyFile string `env:"RECIPIENT_KEY_FILE"`
	CallbackKeyFile  string `env:"CALLBACK_KEY_FILE"`
}

// NewClientConfig loads the CLI settings from the environment
func NewClientConfig() (*ClientEnvironment, error) {
	var cfg ClientEnvironment

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}
	if !validEnvs[cfg.Environment] {
		return nil, fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if !validRegions[cfg.WalletRegion] {
		return nil, fmt.Errorf("invalid WALLET_REGION: %s (must be one of drcn, drru, dra, dre)", cfg.WalletRegion)
	}
	return &cfg, nil
}

// RequireWalletServer checks the settings needed to call the wallet server REST API
func (c *ClientEnvironment) RequireWalletServer() error {
	switch {
	case c.AppID == "":
		return fmt.Errorf("APP_ID is required")
	case c.AppSecret == "":
		return fmt.Errorf("APP_SECRET is required")
	case c.WalletServerBaseURL == "":
		return fmt.Errorf("WALLET_SERVER_BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.TokenURL); err != nil {
		return fmt.Errorf("TOKEN_URL is not a valid URL: %w", err)
	}
	if _, err := url.ParseRequestURI(c.WalletServerBaseURL); err != nil {
		return fmt.Errorf("WALLET_SERVER_BASE_URL is not a valid URL: %w", err)
	}
	return nil
}

// RequireSigner checks the settings needed to build envelopes
func (c *ClientEnvironment) RequireSigner() error {
	switch {
	case c.AppID == "":
		return fmt.Errorf("APP_ID is required")
	case c.SigningKeyFile == "":
		return fmt.Errorf("SIGNING_KEY_FILE is required")
	}
	return nil
}
