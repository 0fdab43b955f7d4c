// envelope.go builds and opens the five part wallet envelope used to save passes to a user's wallet.
//
// Envelope layout (all parts joined with "."):
//
//	header     URL-b64("alg=RSA-OAEP, enc=A128GCM, kid=1, zip=gzip")
//	wrappedKey URL-b64(RSA-OAEP(hex content key))
//	iv         URL-b64(hex iv)                       - the hex text, not the 12 raw bytes
//	cipherText URL-b64(gzip(HEX(AES-GCM(payload))))
//	signature  std-b64(RSA-PSS(header "." hexContentKey "." iv "." payload))
//
// The signature covers the plaintext content key and payload rather than the transmitted segments,
// so the receiver has to decrypt before it can verify.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

const envelopeSeparator = "."

// Envelope holds the five encoded segments of an envelope
type Envelope struct {
	Header     string
	WrappedKey string
	IV         string
	CipherText string
	Signature  string
}

// String joins the segments into the transport form
func (e Envelope) String() string {
	return strings.Join([]string{e.Header, e.WrappedKey, e.IV, e.CipherText, e.Signature}, envelopeSeparator)
}

// ParseEnvelope splits an envelope into its segments. It does not decode or verify anything.
func ParseEnvelope(s string) (Envelope, error) {
	parts := strings.Split(strings.TrimSpace(s), envelopeSeparator)
	if len(parts) != 5 {
		return Envelope{}, NewValidationError(fmt.Sprintf("envelope must have 5 segments, got %d", len(parts)))
	}
	for i, p := range parts {
		if p == "" {
			return Envelope{}, NewValidationError(fmt.Sprintf("envelope segment %d is empty", i+1))
		}
	}
	return Envelope{
		Header:     parts[0],
		WrappedKey: parts[1],
		IV:         parts[2],
		CipherText: parts[3],
		Signature:  parts[4],
	}, nil
}

// BuildEnvelope encrypts and signs payload for the wallet server.
//
// signerPrivateKeyPem is the issuer's own key (its public half is registered with the wallet server),
// recipientPublicKeyPem is the wallet server's key used to wrap the content key.
// A fresh content key and iv are drawn for every call.
func BuildEnvelope(payload, signerPrivateKeyPem, recipientPublicKeyPem string) (string, error) {
	if payload == "" {
		return "", NewEmptyPayloadError("payload is empty")
	}

	recipient, err := ParseRSAPublicKeyPEM(recipientPublicKeyPem)
	if err != nil {
		return "", err
	}
	signer, err := ParseRSAPrivateKeyPEM(signerPrivateKeyPem)
	if err != nil {
		return "", err
	}

	env, err := BuildEnvelopeWithKeys(payload, signer, recipient)
	if err != nil {
		return "", err
	}
	return env.String(), nil
}

// BuildEnvelopeWithKeys is BuildEnvelope for already parsed keys, returning the segments
func BuildEnvelopeWithKeys(payload string, signer *rsa.PrivateKey, recipient *rsa.PublicKey) (Envelope, error) {
	return buildEnvelope(rand.Reader, payload, signer, recipient)
}

func buildEnvelope(random io.Reader, payload string, signer *rsa.PrivateKey, recipient *rsa.PublicKey) (Envelope, error) {
	if payload == "" {
		return Envelope{}, NewEmptyPayloadError("payload is empty")
	}

	header := EncodeHeader(BuildHeader())

	contentKey, err := randomHex(random, contentKeySize)
	if err != nil {
		return Envelope{}, err
	}

	wrapped, err := WrapKeyWithPublicKey(contentKey, recipient)
	if err != nil {
		return Envelope{}, err
	}

	iv, err := randomHex(random, ivSize)
	if err != nil {
		return Envelope{}, err
	}
	ivEncoded := base64.URLEncoding.EncodeToString([]byte(iv))

	cipherHex, err := Encrypt(payload, contentKey, iv)
	if err != nil {
		return Envelope{}, err
	}

	compressed, err := Compress(cipherHex)
	if err != nil {
		return Envelope{}, err
	}

	signature, err := SignWithPrivateKey(signContent(header, contentKey, ivEncoded, payload), signer)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Header:     header,
		WrappedKey: base64.URLEncoding.EncodeToString(wrapped),
		IV:         ivEncoded,
		CipherText: base64.URLEncoding.EncodeToString(compressed),
		Signature:  base64.StdEncoding.EncodeToString(signature),
	}, nil
}

// signContent is the exact string covered by the envelope signature.
// contentKey is the hex content key, not the wrapped key segment.
func signContent(header, contentKey, ivEncoded, payload string) string {
	var b strings.Builder
	b.Grow(len(header) + len(contentKey) + len(ivEncoded) + len(payload) + 3)
	b.WriteString(header)
	b.WriteString(envelopeSeparator)
	b.WriteString(contentKey)
	b.WriteString(envelopeSeparator)
	b.WriteString(ivEncoded)
	b.WriteString(envelopeSeparator)
	b.WriteString(payload)
	return b.String()
}

func randomHex(random io.Reader, size int) (string, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(random, b); err != nil {
		return "", WrapInternalError(err, "failed to read random bytes")
	}
	return hex.EncodeToString(b), nil
}

// OpenedEnvelope is the result of OpenEnvelope
type OpenedEnvelope struct {
	Header     EnvelopeHeader
	ContentKey string
	IV         string
	Payload    string
}

// OpenEnvelope does what the wallet server does with an envelope: unwrap the content key,
// decrypt and decompress the payload, then verify the signature with the issuer's public key.
//
// It is used to check envelopes built with sandbox keys; the production recipient private key is never available.
func OpenEnvelope(envelope, recipientPrivateKeyPem, signerPublicKeyPem string) (*OpenedEnvelope, error) {
	recipient, err := ParseRSAPrivateKeyPEM(recipientPrivateKeyPem)
	if err != nil {
		return nil, err
	}
	signer, err := ParseRSAPublicKeyPEM(signerPublicKeyPem)
	if err != nil {
		return nil, err
	}
	return OpenEnvelopeWithKeys(envelope, recipient, signer)
}

// OpenEnvelopeWithKeys is OpenEnvelope for already parsed keys
func OpenEnvelopeWithKeys(envelope string, recipient *rsa.PrivateKey, signer *rsa.PublicKey) (*OpenedEnvelope, error) {
	env, err := ParseEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	header, err := DecodeHeader(env.Header)
	if err != nil {
		return nil, err
	}

	wrapped, err := DecodeSegment(env.WrappedKey)
	if err != nil {
		return nil, WrapValidationError(err, "wrapped key is not valid base64")
	}
	contentKey, err := UnwrapKeyWithPrivateKey(wrapped, recipient)
	if err != nil {
		return nil, err
	}

	ivHex, err := DecodeSegment(env.IV)
	if err != nil {
		return nil, WrapValidationError(err, "iv is not valid base64")
	}

	compressed, err := DecodeSegment(env.CipherText)
	if err != nil {
		return nil, WrapValidationError(err, "ciphertext is not valid base64")
	}
	cipherHex, err := Decompress(compressed)
	if err != nil {
		return nil, err
	}

	payload, err := Decrypt(cipherHex, contentKey, string(ivHex))
	if err != nil {
		return nil, err
	}

	content := signContent(env.Header, contentKey, env.IV, payload)
	if err := VerifySignatureWithPublicKey(content, signer, env.Signature); err != nil {
		return nil, err
	}

	return &OpenedEnvelope{
		Header:     header,
		ContentKey: contentKey,
		IV:         string(ivHex),
		Payload:    payload,
	}, nil
}
