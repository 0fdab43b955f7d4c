// crypto package builds the signed and encrypted envelope used to save passes to an HMS wallet,
// and verifies the signature on the wallet server's callback notifications.
//
// every function takes its key material as an argument - nothing is cached or kept between calls,
// so all functions are safe for concurrent use.
// See the services package for the functions that load keys and stamp payloads.
package crypto
