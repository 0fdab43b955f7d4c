package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EnvelopeHeader describes the algorithms used to build an envelope.
// It is not JSON: the wire form is "alg=..., enc=..., kid=..., zip=..." encoded as URL-safe base64.
type EnvelopeHeader struct {
	Algorithm   string // alg
	Encryption  string // enc
	KeyID       string // kid
	Compression string // zip
}

// BuildHeader returns the fixed header used for every envelope
func BuildHeader() EnvelopeHeader {
	return EnvelopeHeader{
		Algorithm:   AlgorithmRSAOAEP,
		Encryption:  EncryptionA128GCM,
		KeyID:       HeaderKeyID,
		Compression: CompressionGzip,
	}
}

// String returns the unencoded header text
func (h EnvelopeHeader) String() string {
	var b strings.Builder
	b.WriteString("alg=")
	b.WriteString(h.Algorithm)
	b.WriteString(", enc=")
	b.WriteString(h.Encryption)
	b.WriteString(", kid=")
	b.WriteString(h.KeyID)
	b.WriteString(", zip=")
	b.WriteString(h.Compression)
	return b.String()
}

// EncodeHeader returns the URL-safe base64 encoding of the header text.
func EncodeHeader(h EnvelopeHeader) string {
	return base64.URLEncoding.EncodeToString([]byte(h.String()))
}

// DecodeHeader parses an encoded header segment.
// The four fields must all be present and must carry the fixed values returned by BuildHeader.
func DecodeHeader(encoded string) (EnvelopeHeader, error) {
	raw, err := DecodeSegment(encoded)
	if err != nil {
		return EnvelopeHeader{}, WrapValidationError(err, "header is not valid base64")
	}

	var h EnvelopeHeader
	seen := make(map[string]bool, 4)
	for part := range strings.SplitSeq(string(raw), ", ") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return EnvelopeHeader{}, NewValidationError(fmt.Sprintf("malformed header field %q", part))
		}
		if seen[key] {
			return EnvelopeHeader{}, NewValidationError(fmt.Sprintf("duplicate header field %q", key))
		}
		seen[key] = true

		switch key {
		case "alg":
			h.Algorithm = value
		case "enc":
			h.Encryption = value
		case "kid":
			h.KeyID = value
		case "zip":
			h.Compression = value
		default:
			return EnvelopeHeader{}, NewValidationError(fmt.Sprintf("unknown header field %q", key))
		}
	}

	if h != BuildHeader() {
		return EnvelopeHeader{}, NewValidationError(fmt.Sprintf("unsupported header: %s", h))
	}
	return h, nil
}

// DecodeSegment decodes an envelope segment: URL-safe base64 with or without padding.
func DecodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
