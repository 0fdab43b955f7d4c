// callback.go verifies the signature the wallet server attaches to callback notifications.
//
// The server signs the notification body flattened to "k1=v1&k2=v2..." with keys in byte order.
// Values are not escaped, so a value containing '&' or '=' makes the string ambiguous.
// That cannot be fixed here without breaking verification of what the server actually signs.
package crypto

import (
	"crypto/rsa"
	"sort"
	"strings"
)

// Canonicalize returns the string the wallet server signs for a callback notification.
// Keys are sorted by byte value and entries with an empty value are left out.
func Canonicalize(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

// VerifyCallback checks signatureB64 (standard base64) over the canonical form of fields.
func VerifyCallback(fields map[string]string, issuerPublicKeyPem, signatureB64 string) bool {
	return Verify(Canonicalize(fields), issuerPublicKeyPem, signatureB64)
}

// VerifyCallbackWithPublicKey is VerifyCallback for an already parsed key, returning the reason on failure
func VerifyCallbackWithPublicKey(fields map[string]string, publicKey *rsa.PublicKey, signatureB64 string) error {
	return VerifySignatureWithPublicKey(Canonicalize(fields), publicKey, signatureB64)
}
