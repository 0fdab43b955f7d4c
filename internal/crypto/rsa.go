// rsa.go wraps the content key with RSA-OAEP and signs / verifies with RSA-PSS.
//
// Parameters are fixed: SHA-256 for the OAEP hash and both MGF1 masks, an empty OAEP label,
// SHA-256 PSS digest with an explicit 32 byte salt.
// The PEM based functions are the public contract; the key based ones are used when a key is already parsed.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
)

var pssOptions = &rsa.PSSOptions{
	SaltLength: pssSaltLength,
	Hash:       hashAlgorithm,
}

// WrapKey encrypts the UTF-8 bytes of the hex content key with RSA-OAEP (SHA-256, MGF1-SHA-256).
// The raw RSA ciphertext is returned; its length is the modulus size.
func WrapKey(contentKey, recipientPublicKeyPem string) ([]byte, error) {
	publicKey, err := ParseRSAPublicKeyPEM(recipientPublicKeyPem)
	if err != nil {
		return nil, err
	}
	return WrapKeyWithPublicKey(contentKey, publicKey)
}

// WrapKeyWithPublicKey is WrapKey for an already parsed key
func WrapKeyWithPublicKey(contentKey string, publicKey *rsa.PublicKey) ([]byte, error) {
	if publicKey == nil || publicKey.N == nil {
		return nil, NewInvalidPublicKeyError("public key is nil")
	}

	// RFC 8017 7.1.1: mLen <= k - 2hLen - 2
	limit := publicKey.Size() - 2*hashAlgorithm.Size() - 2
	if len(contentKey) > limit {
		return nil, NewPlaintextTooLargeError(fmt.Sprintf("content key is %d bytes, the limit for a %d bit key is %d", len(contentKey), publicKey.N.BitLen(), limit))
	}

	wrapped, err := rsa.EncryptOAEP(hashAlgorithm.New(), rand.Reader, publicKey, []byte(contentKey), nil)
	if err != nil {
		if errors.Is(err, rsa.ErrMessageTooLong) {
			return nil, NewPlaintextTooLargeError(err.Error())
		}
		return nil, WrapInvalidPublicKeyError(err, "RSA-OAEP encryption failed")
	}
	return wrapped, nil
}

// UnwrapKey reverses WrapKey with the recipient private key and returns the hex content key.
func UnwrapKey(wrapped []byte, recipientPrivateKeyPem string) (string, error) {
	privateKey, err := ParseRSAPrivateKeyPEM(recipientPrivateKeyPem)
	if err != nil {
		return "", err
	}
	return UnwrapKeyWithPrivateKey(wrapped, privateKey)
}

// UnwrapKeyWithPrivateKey is UnwrapKey for an already parsed key
func UnwrapKeyWithPrivateKey(wrapped []byte, privateKey *rsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", NewInvalidPrivateKeyError("private key is nil")
	}

	contentKey, err := rsa.DecryptOAEP(hashAlgorithm.New(), rand.Reader, privateKey, wrapped, nil)
	if err != nil {
		return "", WrapVerificationFailedError(err, "failed to unwrap content key")
	}
	return string(contentKey), nil
}

// Sign signs the UTF-8 bytes of content with RSA-PSS (SHA-256, MGF1-SHA-256, 32 byte salt).
// The raw signature is returned; its length is the modulus size.
func Sign(content, privateKeyPem string) ([]byte, error) {
	privateKey, err := ParseRSAPrivateKeyPEM(privateKeyPem)
	if err != nil {
		return nil, err
	}
	return SignWithPrivateKey(content, privateKey)
}

// SignWithPrivateKey is Sign for an already parsed key
func SignWithPrivateKey(content string, privateKey *rsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, NewInvalidPrivateKeyError("private key is nil")
	}

	digest := hashAlgorithm.New()
	digest.Write([]byte(content))

	signature, err := rsa.SignPSS(rand.Reader, privateKey, hashAlgorithm, digest.Sum(nil), pssOptions)
	if err != nil {
		return nil, WrapInvalidPrivateKeyError(err, "RSA-PSS signing failed")
	}
	return signature, nil
}

// Verify checks a standard base64 RSA-PSS signature over content.
// It returns true only for an exact match; any parse or verification failure is false.
func Verify(content, publicKeyPem, signatureB64 string) bool {
	return VerifySignature(content, publicKeyPem, signatureB64) == nil
}

// VerifySignature is Verify with the reason for a rejection.
// Every failure, including a bad key or bad encoding, has code ErrCodeVerificationFailed.
func VerifySignature(content, publicKeyPem, signatureB64 string) error {
	publicKey, err := ParseRSAPublicKeyPEM(publicKeyPem)
	if err != nil {
		return WrapVerificationFailedError(err, "cannot verify signature")
	}
	return VerifySignatureWithPublicKey(content, publicKey, signatureB64)
}

// VerifySignatureWithPublicKey is VerifySignature for an already parsed key
func VerifySignatureWithPublicKey(content string, publicKey *rsa.PublicKey, signatureB64 string) error {
	if publicKey == nil {
		return NewVerificationFailedError("public key is nil")
	}

	signature, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return WrapVerificationFailedError(err, "signature is not valid base64")
	}

	digest := hashAlgorithm.New()
	digest.Write([]byte(content))

	if err := rsa.VerifyPSS(publicKey, hashAlgorithm, digest.Sum(nil), signature, pssOptions); err != nil {
		return WrapVerificationFailedError(err, "signature does not match")
	}
	return nil
}
