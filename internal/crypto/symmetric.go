// symmetric.go implements the payload side of the envelope: AES-GCM encryption and gzip compression.
//
// The key and iv are both handled as hex strings, but differently:
//   - the key is the UTF-8 bytes of the hex string itself (32 chars -> 32 bytes of key material)
//   - the iv is hex decoded to its 12 raw bytes before being used as the nonce
//
// This matches what the HMS wallet server does when it opens the envelope.
package crypto

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Encrypt seals plaintext with AES-GCM and returns ciphertext||tag as an upper case hex string.
func Encrypt(plaintext, key, iv string) (string, error) {
	aead, nonce, err := newGCM(key, iv)
	if err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	return strings.ToUpper(hex.EncodeToString(sealed)), nil
}

// Decrypt reverses Encrypt. Hex input is accepted in either case.
func Decrypt(cipherHex, key, iv string) (string, error) {
	aead, nonce, err := newGCM(key, iv)
	if err != nil {
		return "", err
	}

	sealed, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", WrapValidationError(err, "ciphertext is not valid hex")
	}
	if len(sealed) < gcmTagSize {
		return "", NewValidationError("ciphertext is shorter than the authentication tag")
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", WrapVerificationFailedError(err, "failed to open ciphertext")
	}
	return string(plaintext), nil
}

func newGCM(key, iv string) (cipher.AEAD, []byte, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, nil, NewInvalidKeyLengthError(fmt.Sprintf("content key must be 16, 24 or 32 bytes, got %d", len(key)))
	}

	nonce, err := hex.DecodeString(iv)
	if err != nil {
		return nil, nil, WrapValidationError(err, "iv is not valid hex")
	}
	if len(nonce) != ivSize {
		return nil, nil, NewValidationError(fmt.Sprintf("iv must be %d bytes, got %d", ivSize, len(nonce)))
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, nil, WrapInternalError(err, "aes.NewCipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, WrapInternalError(err, "cipher.NewGCM")
	}
	return aead, nonce, nil
}

// Compress writes text as a single complete gzip member.
func Compress(text string) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(text)); err != nil {
		return nil, WrapInternalError(err, "failed to compress")
	}
	// Close writes the CRC32 and size trailer
	if err := w.Close(); err != nil {
		return nil, WrapInternalError(err, "failed to finish gzip stream")
	}
	return buf.Bytes(), nil
}

// Decompress reads a gzip stream. Output larger than MaxPayloadSize is rejected.
func Decompress(data []byte) (string, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", WrapValidationError(err, "ciphertext segment is not gzip")
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, MaxPayloadSize+1))
	if err != nil {
		return "", WrapValidationError(err, "failed to decompress")
	}
	if int64(len(out)) > MaxPayloadSize {
		return "", NewValidationError(fmt.Sprintf("decompressed ciphertext exceeds %d bytes", MaxPayloadSize))
	}
	return string(out), nil
}
