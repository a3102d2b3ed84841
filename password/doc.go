// Package password provides credential hashing and signing utilities for
// the authentication core.
//
// It covers adaptive password hashing (bcrypt), cryptographically secure
// password and token generation, and HMAC-SHA256 signing with constant-time
// verification.
//
// Usage:
//
//	hasher := password.NewHasher()
//	hash, err := hasher.Hash("my-password")
//	err = hasher.Verify("my-password", hash)
package password
