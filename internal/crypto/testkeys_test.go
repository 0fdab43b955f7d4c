package crypto

import (
	"crypto/rsa"
	"sync"
	"testing"
)

// testKeyPair holds a generated RSA key pair in both parsed and PEM form
type testKeyPair struct {
	private    *rsa.PrivateKey
	privatePEM string
	publicPEM  string
}

var (
	testKeysOnce sync.Once
	testSigner   testKeyPair
	testWallet   testKeyPair
	testKeysErr  error
)

// testKeys returns two 2048-bit key pairs: one for the issuer (signer) and one standing in for the wallet server (recipient).
// Generating RSA keys is slow so they are shared by all tests in the package.
func testKeys(t *testing.T) (signer, wallet testKeyPair) {
	t.Helper()

	testKeysOnce.Do(func() {
		testSigner, testKeysErr = newTestKeyPair()
		if testKeysErr != nil {
			return
		}
		testWallet, testKeysErr = newTestKeyPair()
	})
	if testKeysErr != nil {
		t.Fatalf("failed to generate test keys: %v", testKeysErr)
	}
	return testSigner, testWallet
}

func newTestKeyPair() (testKeyPair, error) {
	key, err := GenerateRSAKeyPair(2048)
	if err != nil {
		return testKeyPair{}, err
	}
	privatePEM, err := EncodeRSAPrivateKeyPEM(key)
	if err != nil {
		return testKeyPair{}, err
	}
	publicPEM, err := EncodeRSAPublicKeyPEM(&key.PublicKey)
	if err != nil {
		return testKeyPair{}, err
	}
	return testKeyPair{private: key, privatePEM: privatePEM, publicPEM: publicPEM}, nil
}
