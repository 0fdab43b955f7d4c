package crypto

// MaxPayloadSize is the maximum size accepted when decompressing an envelope ciphertext segment.
// The hex encoded ciphertext is roughly twice the payload so this bounds payloads to about 5MB.
var MaxPayloadSize int64 = 10 * 1024 * 1024 // 10MB
