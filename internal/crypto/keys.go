// this file contains functions to parse, generate and store the RSA keys used by the envelope.
//
// The envelope only uses RSA: the content key is wrapped with RSA-OAEP under the wallet server's public key
// and the envelope is signed with RSA-PSS using the issuer's own private key.
//
// Accepted PEM formats:
//   - public keys: "PUBLIC KEY" (SubjectPublicKeyInfo) and "RSA PUBLIC KEY" (PKCS#1)
//   - private keys: "PRIVATE KEY" (PKCS#8) and "RSA PRIVATE KEY" (PKCS#1)
//
// Keys written by this package are PKCS#8 / SubjectPublicKeyInfo.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// ParseRSAPublicKeyPEM decodes a PEM encoded RSA public key.
func ParseRSAPublicKeyPEM(publicKeyPem string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(publicKeyPem)))
	if block == nil {
		return nil, NewInvalidPublicKeyError("failed to decode PEM block")
	}

	switch block.Type {
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, WrapInvalidPublicKeyError(err, "failed to parse public key")
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, NewInvalidPublicKeyError(fmt.Sprintf("key is not an RSA public key (%T)", pub))
		}
		return rsaPub, nil
	case "RSA PUBLIC KEY":
		rsaPub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, WrapInvalidPublicKeyError(err, "failed to parse PKCS#1 public key")
		}
		return rsaPub, nil
	default:
		return nil, NewInvalidPublicKeyError(fmt.Sprintf("PEM block is not a public key (type: %s)", block.Type))
	}
}

// ParseRSAPrivateKeyPEM decodes a PEM encoded RSA private key.
func ParseRSAPrivateKeyPEM(privateKeyPem string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(privateKeyPem)))
	if block == nil {
		return nil, NewInvalidPrivateKeyError("failed to decode PEM block")
	}

	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, WrapInvalidPrivateKeyError(err, "failed to parse PKCS#8 private key")
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, NewInvalidPrivateKeyError(fmt.Sprintf("key is not an RSA private key (%T)", key))
		}
		return rsaKey, nil
	case "RSA PRIVATE KEY":
		rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, WrapInvalidPrivateKeyError(err, "failed to parse PKCS#1 private key")
		}
		return rsaKey, nil
	default:
		return nil, NewInvalidPrivateKeyError(fmt.Sprintf("PEM block is not a private key (type: %s)", block.Type))
	}
}

// EncodeRSAPrivateKeyPEM returns the key as a PKCS#8 PEM string
func EncodeRSAPrivateKeyPEM(privateKey *rsa.PrivateKey) (string, error) {
	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to marshal private key")
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})), nil
}

// EncodeRSAPublicKeyPEM returns the key as a SubjectPublicKeyInfo PEM string
func EncodeRSAPublicKeyPEM(publicKey *rsa.PublicKey) (string, error) {
	pubBytes, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to marshal public key")
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})), nil
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size
// minimum key size is 2048 bits - key size must be a multiple of 256
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		return nil, fmt.Errorf("key size must be at least 2048 bits")
	}

	if bits%256 != 0 {
		return nil, fmt.Errorf("key size should be a multiple of 256")
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	return privateKey, nil
}

// SaveRSAPrivateKeyToPEMFile saves an RSA private key to a PEM file in PKCS#8 format
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.pem")
func SaveRSAPrivateKeyToPEMFile(privateKey *rsa.PrivateKey, baseDir, filename string) error {
	pemData, err := EncodeRSAPrivateKeyPEM(privateKey)
	if err != nil {
		return err
	}
	return writeScopedFile(baseDir, filename, []byte(pemData), 0600)
}

// SaveRSAPublicKeyToPEMFile saves an RSA public key to a PEM file in SubjectPublicKeyInfo format
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "public.pem")
func SaveRSAPublicKeyToPEMFile(publicKey *rsa.PublicKey, baseDir, filename string) error {
	pemData, err := EncodeRSAPublicKeyPEM(publicKey)
	if err != nil {
		return err
	}
	return writeScopedFile(baseDir, filename, []byte(pemData), 0644)
}

// ReadPEMFile returns the content of a PEM file as a string without parsing it.
// The envelope functions take PEM strings, so this is how key files are normally loaded.
func ReadPEMFile(baseDir, filename string) (string, error) {
	data, err := readScopedFile(baseDir, filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadRSAPrivateKeyFromPEMFile loads an RSA private key from a PEM file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.pem")
func ReadRSAPrivateKeyFromPEMFile(baseDir, filename string) (*rsa.PrivateKey, error) {
	pemData, err := ReadPEMFile(baseDir, filename)
	if err != nil {
		return nil, err
	}
	return ParseRSAPrivateKeyPEM(pemData)
}

// ReadRSAPublicKeyFromPEMFile loads an RSA public key from a PEM file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "public.pem")
func ReadRSAPublicKeyFromPEMFile(baseDir, filename string) (*rsa.PublicKey, error) {
	pemData, err := ReadPEMFile(baseDir, filename)
	if err != nil {
		return nil, err
	}
	return ParseRSAPublicKeyPEM(pemData)
}

// SaveRSAPrivateKeyToJWKFile saves an RSA private key to a JWK set file
// note the key is not encrypted
func SaveRSAPrivateKeyToJWKFile(privateKey *rsa.PrivateKey, keyID, baseDir, filename string) error {
	jwkKey, err := RSAPrivateKeyToJWK(privateKey, keyID)
	if err != nil {
		return fmt.Errorf("failed to create JWK: %w", err)
	}
	return saveJWKSet(jwkKey, baseDir, filename, 0600)
}

// SaveRSAPublicKeyToJWKFile saves an RSA public key to a JWK set file
func SaveRSAPublicKeyToJWKFile(publicKey *rsa.PublicKey, keyID, baseDir, filename string) error {
	jwkKey, err := RSAPublicKeyToJWK(publicKey, keyID)
	if err != nil {
		return fmt.Errorf("failed to create JWK: %w", err)
	}
	return saveJWKSet(jwkKey, baseDir, filename, 0644)
}

// ReadRSAPrivateKeyFromJWKFile loads an RSA private key from a JWK set file (the first key is used)
func ReadRSAPrivateKeyFromJWKFile(baseDir, filename string) (*rsa.PrivateKey, error) {
	jwkKey, err := readFirstJWK(baseDir, filename)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := jwk.Export(jwkKey, &raw); err != nil {
		return nil, fmt.Errorf("failed to export key: %w", err)
	}

	privateKey, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, NewInvalidPrivateKeyError("key is not an RSA private key")
	}

	return privateKey, nil
}

// ReadRSAPublicKeyFromJWKFile loads an RSA public key from a JWK set file (the first key is used)
func ReadRSAPublicKeyFromJWKFile(baseDir, filename string) (*rsa.PublicKey, error) {
	jwkKey, err := readFirstJWK(baseDir, filename)
	if err != nil {
		return nil, err
	}
	return JWKToRSAPublicKey(jwkKey)
}

func saveJWKSet(key jwk.Key, baseDir, filename string, perm os.FileMode) error {
	jwkSet := jwk.NewSet()
	if err := jwkSet.AddKey(key); err != nil {
		return fmt.Errorf("failed to add key to JWK set: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(jwkSet, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JWK set: %w", err)
	}

	return writeScopedFile(baseDir, filename, jsonBytes, perm)
}

func readFirstJWK(baseDir, filename string) (jwk.Key, error) {
	jsonBytes, err := readScopedFile(baseDir, filename)
	if err != nil {
		return nil, err
	}

	jwkSet, err := jwk.Parse(jsonBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWK set: %w", err)
	}

	if jwkSet.Len() == 0 {
		return nil, fmt.Errorf("JWK set is empty")
	}

	jwkKey, ok := jwkSet.Key(0)
	if !ok {
		return nil, fmt.Errorf("failed to get key from JWK set")
	}
	return jwkKey, nil
}

func readScopedFile(baseDir, filename string) ([]byte, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	data, err := root.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func writeScopedFile(baseDir, filename string, data []byte, perm os.FileMode) error {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	if err := root.WriteFile(filename, data, perm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
