package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"testing"
)

var lowerHex = regexp.MustCompile(`^[0-9a-f]+$`)

const testPayload = `{"iss":"101234567","instanceIds":["EventTicketPass10001"],"tm":"1717000000000"}`

// TestBuildEnvelope opens the envelope step by step with the stdlib helpers
// rather than OpenEnvelope, so the wire format is checked independently.
func TestBuildEnvelope(t *testing.T) {
	signer, wallet := testKeys(t)

	out, err := BuildEnvelope(testPayload, signer.privatePEM, wallet.publicPEM)
	if err != nil {
		t.Fatalf("BuildEnvelope() error: %v", err)
	}

	parts := strings.Split(out, ".")
	if len(parts) != 5 {
		t.Fatalf("envelope has %d segments, want 5", len(parts))
	}
	for i, p := range parts {
		if p == "" {
			t.Fatalf("segment %d is empty", i+1)
		}
	}

	if parts[0] != EncodeHeader(BuildHeader()) {
		t.Errorf("header = %q", parts[0])
	}

	// wrapped key
	wrapped, err := base64.URLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("wrapped key is not URL-safe base64: %v", err)
	}
	contentKey, err := UnwrapKeyWithPrivateKey(wrapped, wallet.private)
	if err != nil {
		t.Fatalf("failed to unwrap: %v", err)
	}
	if len(contentKey) != 32 || !lowerHex.MatchString(contentKey) {
		t.Errorf("content key = %q, want 32 lower case hex chars", contentKey)
	}

	// iv is the hex text, not the raw bytes
	ivHex, err := base64.URLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("iv is not URL-safe base64: %v", err)
	}
	if len(ivHex) != 24 || !lowerHex.Match(ivHex) {
		t.Errorf("iv = %q, want 24 lower case hex chars", ivHex)
	}

	// ciphertext
	compressed, err := base64.URLEncoding.DecodeString(parts[3])
	if err != nil {
		t.Fatalf("ciphertext is not URL-safe base64: %v", err)
	}
	cipherHex, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress() error: %v", err)
	}
	if cipherHex != strings.ToUpper(cipherHex) {
		t.Error("ciphertext hex is not upper case")
	}
	if _, err := hex.DecodeString(cipherHex); err != nil {
		t.Errorf("ciphertext is not hex: %v", err)
	}
	payload, err := Decrypt(cipherHex, contentKey, string(ivHex))
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if payload != testPayload {
		t.Errorf("payload = %q, want %q", payload, testPayload)
	}

	// signature is standard base64 over header.contentKey.ivSegment.payload
	signed := parts[0] + "." + contentKey + "." + parts[2] + "." + testPayload
	if !Verify(signed, signer.publicPEM, parts[4]) {
		t.Error("signature does not verify over the signing string")
	}
	if _, err := base64.StdEncoding.DecodeString(parts[4]); err != nil {
		t.Errorf("signature is not standard base64: %v", err)
	}
}

func TestOpenEnvelope(t *testing.T) {
	signer, wallet := testKeys(t)

	payloads := []string{
		"x",
		testPayload,
		strings.Repeat(`{"k":"v"}`, 5000),
	}

	for _, p := range payloads {
		out, err := BuildEnvelope(p, signer.privatePEM, wallet.publicPEM)
		if err != nil {
			t.Fatalf("BuildEnvelope() error: %v", err)
		}

		opened, err := OpenEnvelope(out, wallet.privatePEM, signer.publicPEM)
		if err != nil {
			t.Fatalf("OpenEnvelope() error: %v", err)
		}
		if opened.Payload != p {
			t.Errorf("Payload = %.40q..., want %.40q...", opened.Payload, p)
		}
		if opened.Header != BuildHeader() {
			t.Errorf("Header = %v", opened.Header)
		}
	}
}

func TestBuildEnvelopeFreshness(t *testing.T) {
	signer, wallet := testKeys(t)

	const n = 8
	var (
		wg        sync.WaitGroup
		envelopes = make([]string, n)
		errs      = make([]error, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			envelopes[i], errs[i] = BuildEnvelope(testPayload, signer.privatePEM, wallet.publicPEM)
		}()
	}
	wg.Wait()

	keys := make(map[string]bool, n)
	ivs := make(map[string]bool, n)
	for i := range n {
		if errs[i] != nil {
			t.Fatalf("BuildEnvelope() error: %v", errs[i])
		}
		opened, err := OpenEnvelope(envelopes[i], wallet.privatePEM, signer.publicPEM)
		if err != nil {
			t.Fatalf("OpenEnvelope() error: %v", err)
		}
		if keys[opened.ContentKey] {
			t.Errorf("content key %s reused", opened.ContentKey)
		}
		if ivs[opened.IV] {
			t.Errorf("iv %s reused", opened.IV)
		}
		keys[opened.ContentKey] = true
		ivs[opened.IV] = true
	}
}

func TestBuildEnvelopeErrors(t *testing.T) {
	signer, wallet := testKeys(t)

	tests := []struct {
		name      string
		payload   string
		signer    string
		recipient string
		wantCode  ErrorCode
	}{
		{"empty payload", "", signer.privatePEM, wallet.publicPEM, ErrCodeEmptyPayload},
		{"empty payload and bad keys", "", "bad", "bad", ErrCodeEmptyPayload},
		{"recipient not PEM", testPayload, signer.privatePEM, "not a key", ErrCodeInvalidPublicKey},
		{"signer not PEM", testPayload, "not a key", wallet.publicPEM, ErrCodeInvalidPrivateKey},
		{"signer is a public key", testPayload, signer.publicPEM, wallet.publicPEM, ErrCodeInvalidPrivateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := BuildEnvelope(tt.payload, tt.signer, tt.recipient)
			if !HasCode(err, tt.wantCode) {
				t.Errorf("BuildEnvelope() error = %v, want code %s", err, tt.wantCode)
			}
			if out != "" {
				t.Errorf("expected no envelope on error, got %q", out)
			}
		})
	}
}

func TestBuildEnvelopeRandomSourceFailure(t *testing.T) {
	signer, wallet := testKeys(t)

	// 16 bytes is enough for the content key but not the iv
	_, err := buildEnvelope(bytes.NewReader(make([]byte, 16)), testPayload, signer.private, &wallet.private.PublicKey)
	if !HasCode(err, ErrCodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestOpenEnvelopeTampered(t *testing.T) {
	signer, wallet := testKeys(t)

	out, err := BuildEnvelope(testPayload, signer.privatePEM, wallet.publicPEM)
	if err != nil {
		t.Fatal(err)
	}
	env, err := ParseEnvelope(out)
	if err != nil {
		t.Fatal(err)
	}

	// re-encrypt a different payload under the same content key and iv: GCM still opens, the signature must not verify
	contentKey, err := UnwrapKeyWithPrivateKey(mustDecodeURL(t, env.WrappedKey), wallet.private)
	if err != nil {
		t.Fatal(err)
	}
	iv := string(mustDecodeURL(t, env.IV))
	forgedHex, err := Encrypt(strings.Replace(testPayload, "EventTicketPass10001", "EventTicketPass99999", 1), contentKey, iv)
	if err != nil {
		t.Fatal(err)
	}
	forgedZip, err := Compress(forgedHex)
	if err != nil {
		t.Fatal(err)
	}
	forged := env
	forged.CipherText = base64.URLEncoding.EncodeToString(forgedZip)

	flipped := env
	flipped.Signature = flipSignature(t, env.Signature)

	tests := []struct {
		name     string
		envelope string
		verifier string
		wantCode ErrorCode
	}{
		{"payload replaced", forged.String(), signer.publicPEM, ErrCodeVerificationFailed},
		{"signature changed", flipped.String(), signer.publicPEM, ErrCodeVerificationFailed},
		{"wrong signer key", out, wallet.publicPEM, ErrCodeVerificationFailed},
		{"four segments", strings.Join([]string{env.Header, env.WrappedKey, env.IV, env.CipherText}, "."), signer.publicPEM, ErrCodeValidation},
		{"empty segment", env.Header + ".." + env.IV + "." + env.CipherText + "." + env.Signature, signer.publicPEM, ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenEnvelope(tt.envelope, wallet.privatePEM, tt.verifier)
			if !HasCode(err, tt.wantCode) {
				t.Errorf("OpenEnvelope() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func mustDecodeURL(t *testing.T, s string) []byte {
	t.Helper()
	b, err := DecodeSegment(s)
	if err != nil {
		t.Fatalf("failed to decode %q: %v", s, err)
	}
	return b
}

func flipSignature(t *testing.T, sigB64 string) string {
	t.Helper()
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		t.Fatal(err)
	}
	sig[len(sig)/2] ^= 0xff
	return base64.StdEncoding.EncodeToString(sig)
}
