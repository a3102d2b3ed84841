package password

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SignHMAC returns the hex-encoded HMAC-SHA256 of data under the key.
func SignHMAC(data, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC reports whether signature is a valid HMAC-SHA256 of data
// under the key. Comparison is constant-time.
func VerifyHMAC(data, signature, key string) bool {
	expected := SignHMAC(data, key)
	return SecureCompare(expected, signature)
}

// SecureCompare compares two strings in constant time to prevent timing
// side-channels. Strings of different lengths compare unequal without
// leaking where they differ.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashSHA256 returns the SHA-256 hex digest of the input string.
// Used for deriving anonymous client identifiers; never for passwords.
func HashSHA256(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}
