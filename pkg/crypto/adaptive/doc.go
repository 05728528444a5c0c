// Package adaptive provides adaptive at-rest encryption for the AOF.
//
// This package implements a cipher abstraction that selects an
// encryption algorithm based on the target architecture.
//
// Supported Algorithms:
//
//   - AES-GCM (AES-256 with a 32-byte key): selected on amd64 and arm64
//   - ChaCha20-Poly1305: selected on other architectures
//
// Features:
//
//   - Architecture-based selection: New chooses by runtime.GOARCH; CPU
//     features are not probed
//   - AEAD: Authenticated encryption with associated data
//   - Thread Safety: All cipher operations are thread-safe
//
// Keys are used as given; there is no key derivation.
//
// Usage:
//
//	cipher, err := adaptive.New(key)
//	encrypted, err := cipher.Encrypt(plaintext, aad)
//	plaintext, err := cipher.Decrypt(encrypted, aad)
package adaptive
