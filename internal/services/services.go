package services

import (
	"github.com/walletkit-demo/walletpass/internal/config"
	"github.com/walletkit-demo/walletpass/internal/database"
	"github.com/walletkit-demo/walletpass/internal/walletkit"
)

// KeyProvider is the key material the services need (implemented by keymanager.KeyManager)
type KeyProvider interface {
	EnvelopeKeyProvider
	CallbackKeyProvider
}

// Services aggregates the application services used by the server.
type Services struct {
	Envelopes *EnvelopeIssuer
	Callbacks *CallbackService
}

// NewServices creates the service implementations based on configuration.
// queries may be nil, in which case callback events are kept in memory.
func NewServices(cfg *config.ServerEnvironment, queries *database.Queries, keys KeyProvider) (*Services, error) {
	region, err := walletkit.ParseRegion(cfg.WalletRegion)
	if err != nil {
		return nil, err
	}

	envelopes, err := NewEnvelopeIssuer(cfg.AppID, region, keys)
	if err != nil {
		return nil, err
	}

	return &Services{
		Envelopes: envelopes,
		Callbacks: NewCallbackService(keys, NewCallbackStore(queries)),
	}, nil
}
