// Package encryption provides authenticated envelope encryption for
// sensitive fields stored alongside business records.
//
// Each Encrypt call derives a fresh AES-256 key from the master secret
// with argon2id over a random per-call salt, then seals the plaintext
// with AES-GCM. Salt, nonce, and ciphertext (including the GCM tag) are
// packed into a single base64 blob, so a stored value is self-contained:
//
//	salt (16 bytes) || nonce (12 bytes) || ciphertext+tag
//
// Field helpers apply this to a named subset of a record's string fields.
package encryption
