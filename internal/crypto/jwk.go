// JWK (JSON Web Key) helpers
//
// The envelope itself never carries a JWK, but JWK is used around it:
//   - the signer public key is published at /.well-known/jwks.json so it can be registered with the wallet server
//   - keygen writes JWK files next to the PEM files
//   - a callback verification key can be fetched from a JWKS endpoint (see the keymanager package)
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7517

package crypto

import (
	"crypto"
	"crypto/rsa"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// RSAPublicKeyToJWK converts a RSA public key to JWK format.
// The algorithm is PS256 since envelope signatures are RSA-PSS with SHA-256.
func RSAPublicKeyToJWK(publicKey *rsa.PublicKey, keyID string) (jwk.Key, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	return importRSAKey(publicKey, keyID)
}

// RSAPrivateKeyToJWK converts an RSA private key to JWK format
func RSAPrivateKeyToJWK(privateKey *rsa.PrivateKey, keyID string) (jwk.Key, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key is nil")
	}
	return importRSAKey(privateKey, keyID)
}

func importRSAKey(raw any, keyID string) (jwk.Key, error) {
	if keyID == "" {
		return nil, fmt.Errorf("keyID is required")
	}

	key, err := jwk.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK from RSA key: %w", err)
	}

	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}

	if err := key.Set(jwk.AlgorithmKey, jwa.PS256()); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}

	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, fmt.Errorf("failed to set key usage: %w", err)
	}

	return key, nil
}

// JWKToRSAPublicKey converts a JWK to an RSA public key.
// A private JWK is accepted and its public half returned.
func JWKToRSAPublicKey(key jwk.Key) (*rsa.PublicKey, error) {
	if key == nil {
		return nil, fmt.Errorf("key is nil")
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to export RSA public key: %w", err)
	}

	switch k := raw.(type) {
	case *rsa.PublicKey:
		return k, nil
	case *rsa.PrivateKey:
		return &k.PublicKey, nil
	default:
		return nil, NewInvalidPublicKeyError(fmt.Sprintf("expected RSA public key but got %T", raw))
	}
}

// PublicJWKSet returns a JWK set containing only the given public key
func PublicJWKSet(publicKey *rsa.PublicKey, keyID string) (jwk.Set, error) {
	key, err := RSAPublicKeyToJWK(publicKey, keyID)
	if err != nil {
		return nil, err
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, fmt.Errorf("failed to add key to JWK set: %w", err)
	}
	return set, nil
}

// GenerateKeyIDFromRSAKey generates a key ID from an RSA public key using the SHA-256 thumbprint (RFC 7638).
// Returns the first 16 characters of the hex-encoded thumbprint.
func GenerateKeyIDFromRSAKey(publickey *rsa.PublicKey) (string, error) {
	if publickey == nil {
		return "", fmt.Errorf("public key is nil")
	}

	jwkKey, err := jwk.Import(publickey)
	if err != nil {
		return "", fmt.Errorf("failed to import key: %w", err)
	}

	thumbprint, err := jwkKey.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to generate thumbprint: %w", err)
	}

	return fmt.Sprintf("%x", thumbprint)[:16], nil
}
