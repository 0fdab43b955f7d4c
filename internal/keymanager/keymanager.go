// Package keymanager loads and serves the RSA keys used around the envelope and callback code.
//
// Three keys are involved:
//   - the signer key: the issuer's private key, used to sign every envelope.
//     Loaded from SIGNING_KEY_FILE in KEYS_DIR (PEM, or JWK when the file name ends in .jwk/.json).
//     Its public half is published at /.well-known/jwks.json so it can be registered with the wallet server.
//   - the recipient key: the wallet server's public session key, used to wrap the content key.
//     Loaded from RECIPIENT_KEY_FILE, otherwise the built-in HMS session key is used.
//   - the callback key: the wallet server's public key for HMSSign callback signatures.
//     Loaded from CALLBACK_KEY_FILE, or fetched from CALLBACK_JWKS_URL, otherwise the built-in HMS callback key is used.
//
// # JWKS endpoint
//
// When a JWKS URL is configured the key set is cached and refreshed in the background by the jwx cache.
// The callback key is the first RSA signature key in the set.
//
// Keys loaded from files are read once at startup and are not refreshed.
package keymanager

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/walletkit-demo/walletpass/internal/crypto"
)

// Config holds configuration for the KeyManager.
type Config struct {
	// KeysDir is the directory the key file names are resolved in.
	// Files outside this directory cannot be read.
	KeysDir string

	// SigningKeyFile is the issuer's private key (required)
	SigningKeyFile string

	// RecipientKeyFile is the wallet server's public session key (optional)
	RecipientKeyFile string

	// CallbackKeyFile is the wallet server's callback public key (optional)
	CallbackKeyFile string

	// CallbackJWKSURL is a JWKS endpoint serving the callback key (optional, exclusive with CallbackKeyFile)
	CallbackJWKSURL string

	// JWKCacheMinRefreshInterval is the minimum interval between JWK cache refreshes.
	JWKCacheMinRefreshInterval time.Duration

	// JWKCacheMaxRefreshInterval is the maximum interval between JWK cache refreshes.
	JWKCacheMaxRefreshInterval time.Duration

	// JWKCacheWaitReady blocks NewKeyManager until the first JWKS fetch has completed.
	JWKCacheWaitReady bool
}

// KeyManager serves the keys used to build envelopes and verify callbacks.
// Keys are immutable after NewKeyManager returns so the manager is safe for concurrent use.
type KeyManager struct {
	signingKey    *rsa.PrivateKey
	signingKeyPem string
	signingKeyID  string

	recipientKey    *rsa.PublicKey
	recipientKeyPem string

	// callbackKey is nil when the key comes from the JWKS endpoint
	callbackKey *rsa.PublicKey

	jwkCache *jwk.Cache
	jwksURL  string

	logger *slog.Logger
	config *Config
}

// NewKeyManager loads the configured keys and, when a JWKS URL is set, registers it with the JWK cache.
func NewKeyManager(ctx context.Context, config *Config, logger *slog.Logger) (*KeyManager, error) {
	if config == nil {
		return nil, crypto.NewInternalError("config is nil")
	}
	if logger == nil {
		return nil, crypto.NewInternalError("logger cannot be nil")
	}
	if config.SigningKeyFile == "" {
		return nil, crypto.NewKeyManagementError("signing key file is required")
	}
	if config.CallbackKeyFile != "" && config.CallbackJWKSURL != "" {
		return nil, crypto.NewKeyManagementError("configure a callback key file or a JWKS URL, not both")
	}

	km := &KeyManager{
		logger: logger,
		config: config,
	}

	logger.Info("initializing KeyManager",
		slog.String("keys_dir", config.KeysDir),
		slog.String("signing_key_file", config.SigningKeyFile))

	if err := km.loadSigningKey(); err != nil {
		return nil, crypto.WrapKeyManagementError(err, "failed to load signing key")
	}

	if err := km.loadRecipientKey(); err != nil {
		return nil, crypto.WrapKeyManagementError(err, "failed to load recipient key")
	}

	if config.CallbackJWKSURL != "" {
		if err := km.initJWKCache(ctx); err != nil {
			return nil, crypto.WrapKeyManagementError(err, "failed to init JWK cache")
		}
	} else if err := km.loadCallbackKey(); err != nil {
		return nil, crypto.WrapKeyManagementError(err, "failed to load callback key")
	}

	return km, nil
}

// loadSigningKey reads the signer private key and derives its key id (RFC 7638 thumbprint prefix)
func (k *KeyManager) loadSigningKey() error {
	var (
		key *rsa.PrivateKey
		err error
	)
	if isJWKFile(k.config.SigningKeyFile) {
		key, err = crypto.ReadRSAPrivateKeyFromJWKFile(k.config.KeysDir, k.config.SigningKeyFile)
	} else {
		key, err = crypto.ReadRSAPrivateKeyFromPEMFile(k.config.KeysDir, k.config.SigningKeyFile)
	}
	if err != nil {
		return err
	}

	pemText, err := crypto.EncodeRSAPrivateKeyPEM(key)
	if err != nil {
		return err
	}

	keyID, err := crypto.GenerateKeyIDFromRSAKey(&key.PublicKey)
	if err != nil {
		return err
	}

	k.signingKey = key
	k.signingKeyPem = pemText
	k.signingKeyID = keyID

	k.logger.Info("signing key loaded",
		slog.String("file", k.config.SigningKeyFile),
		slog.String("kid", keyID),
		slog.Int("bits", key.N.BitLen()))
	return nil
}

func (k *KeyManager) loadRecipientKey() error {
	if k.config.RecipientKeyFile == "" {
		key, err := crypto.ParseRSAPublicKeyPEM(hmsSessionPublicKeyPem)
		if err != nil {
			return err
		}
		k.recipientKey = key
		k.recipientKeyPem = hmsSessionPublicKeyPem
		k.logger.Info("using built-in HMS session key as recipient key")
		return nil
	}

	key, err := k.readPublicKeyFile(k.config.RecipientKeyFile)
	if err != nil {
		return err
	}
	pemText, err := crypto.EncodeRSAPublicKeyPEM(key)
	if err != nil {
		return err
	}
	k.recipientKey = key
	k.recipientKeyPem = pemText

	k.logger.Info("recipient key loaded", slog.String("file", k.config.RecipientKeyFile))
	return nil
}

func (k *KeyManager) loadCallbackKey() error {
	if k.config.CallbackKeyFile == "" {
		key, err := crypto.ParseRSAPublicKeyPEM(hmsCallbackPublicKeyPem)
		if err != nil {
			return err
		}
		k.callbackKey = key
		k.logger.Info("using built-in HMS callback key")
		return nil
	}

	key, err := k.readPublicKeyFile(k.config.CallbackKeyFile)
	if err != nil {
		return err
	}
	k.callbackKey = key

	k.logger.Info("callback key loaded", slog.String("file", k.config.CallbackKeyFile))
	return nil
}

func (k *KeyManager) readPublicKeyFile(filename string) (*rsa.PublicKey, error) {
	if isJWKFile(filename) {
		return crypto.ReadRSAPublicKeyFromJWKFile(k.config.KeysDir, filename)
	}
	return crypto.ReadRSAPublicKeyFromPEMFile(k.config.KeysDir, filename)
}

// initJWKCache creates the JWK cache and registers the callback JWKS endpoint.
// Unless JWKCacheWaitReady is set the key set is fetched in the background.
func (k *KeyManager) initJWKCache(ctx context.Context) error {
	if _, err := url.ParseRequestURI(k.config.CallbackJWKSURL); err != nil {
		return crypto.WrapValidationError(err, "invalid JWKS URL")
	}

	client := httprc.NewClient()

	cache, err := jwk.NewCache(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to create JWK cache: %w", err)
	}

	err = cache.Register(ctx, k.config.CallbackJWKSURL,
		jwk.WithMinInterval(k.config.JWKCacheMinRefreshInterval),
		jwk.WithMaxInterval(k.config.JWKCacheMaxRefreshInterval),
		jwk.WithWaitReady(k.config.JWKCacheWaitReady),
	)
	if err != nil {
		return fmt.Errorf("failed to register JWKS endpoint: %w", err)
	}

	k.jwkCache = cache
	k.jwksURL = k.config.CallbackJWKSURL

	k.logger.Info("registered callback JWKS endpoint",
		slog.String("jwk_url", k.jwksURL),
		slog.Bool("wait_ready", k.config.JWKCacheWaitReady))
	return nil
}

// SigningKey returns the issuer's private key
func (k *KeyManager) SigningKey() *rsa.PrivateKey { return k.signingKey }

// SigningKeyPEM returns the issuer's private key as PKCS#8 PEM
func (k *KeyManager) SigningKeyPEM() string { return k.signingKeyPem }

// SigningKeyID returns the kid of the signer key (first 16 hex characters of its SHA-256 thumbprint)
func (k *KeyManager) SigningKeyID() string { return k.signingKeyID }

// RecipientKey returns the wallet server public key that content keys are wrapped with
func (k *KeyManager) RecipientKey() *rsa.PublicKey { return k.recipientKey }

// RecipientKeyPEM returns the recipient key as PEM
func (k *KeyManager) RecipientKeyPEM() string { return k.recipientKeyPem }

// CallbackKey returns the key used to verify callback signatures.
// When the key comes from a JWKS endpoint the cached set is used; the first RSA signature key wins.
func (k *KeyManager) CallbackKey(ctx context.Context) (*rsa.PublicKey, error) {
	if k.jwkCache == nil {
		return k.callbackKey, nil
	}

	keySet, err := k.jwkCache.Lookup(ctx, k.jwksURL)
	if err != nil {
		k.logger.Debug("failed to lookup JWK set from cache",
			slog.String("jwk_url", k.jwksURL),
			slog.String("error", err.Error()))
		return nil, crypto.WrapKeyManagementError(err, "callback key set not available")
	}

	for i := range keySet.Len() {
		key, ok := keySet.Key(i)
		if !ok {
			continue
		}
		if use, ok := key.KeyUsage(); ok && use != "" && use != string(jwk.ForSignature) {
			continue
		}
		pub, err := crypto.JWKToRSAPublicKey(key)
		if err != nil {
			continue
		}
		return pub, nil
	}

	return nil, crypto.NewKeyManagementError(fmt.Sprintf("no RSA signature key found at %s", k.jwksURL))
}

// PublicJWKSet returns the signer public key as a JWK set for the jwks endpoint
func (k *KeyManager) PublicJWKSet() (jwk.Set, error) {
	return crypto.PublicJWKSet(&k.signingKey.PublicKey, k.signingKeyID)
}

func isJWKFile(filename string) bool {
	return strings.HasSuffix(filename, ".jwk") ||
		strings.HasSuffix(filename, ".jwks") ||
		strings.HasSuffix(filename, ".json")
}
