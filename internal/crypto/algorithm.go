// algorithm.go defines the fixed algorithm parameters of the wallet envelope.
// The HMS wallet server checks these byte for byte, none of them are configurable.
package crypto

import "crypto"

const (
	// AlgorithmRSAOAEP is the key wrapping algorithm named in the envelope header
	AlgorithmRSAOAEP = "RSA-OAEP"

	// EncryptionA128GCM is the content encryption named in the envelope header.
	// Note the content key is a 32 char hex string used as raw key bytes, so AES-256 is what actually runs.
	EncryptionA128GCM = "A128GCM"

	// HeaderKeyID is the kid sent in every envelope header
	HeaderKeyID = "1"

	// CompressionGzip is the compression named in the envelope header
	CompressionGzip = "gzip"
)

const (
	// contentKeySize is the number of random bytes behind the hex content key
	contentKeySize = 16

	// ivSize is the GCM nonce size in bytes
	ivSize = 12

	// gcmTagSize is the authentication tag appended to the ciphertext
	gcmTagSize = 16

	// pssSaltLength is the explicit RSA-PSS salt length (equal to the SHA-256 digest size)
	pssSaltLength = 32

	// hashAlgorithm is used for the OAEP hash, every MGF1 mask and the PSS digest
	hashAlgorithm = crypto.SHA256
)
