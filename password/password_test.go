package password

import (
	"strings"
	"testing"

	"github.com/loomworks/authcore/errors"
)

func TestHasherRoundTrip(t *testing.T) {
	hasher := NewHasher(WithCost(4)) // low cost keeps the test fast

	hash, err := hasher.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct-horse-battery" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := hasher.Verify("correct-horse-battery", hash); err != nil {
		t.Errorf("verify with correct password failed: %v", err)
	}
	if err := hasher.Verify("wrong-password-entirely", hash); err == nil {
		t.Error("verify with wrong password should fail")
	}
}

func TestHasherRejectsShortPassword(t *testing.T) {
	hasher := NewHasher(WithCost(4))
	_, err := hasher.Hash("short")
	if err == nil {
		t.Fatal("expected error for short password")
	}
	if !errors.IsCode(err, errors.ErrCodeWeakPassword) {
		t.Errorf("expected WEAK_PASSWORD, got %v", err)
	}
}

func TestHasherMinLengthOption(t *testing.T) {
	hasher := NewHasher(WithCost(4), WithMinLength(12))
	if _, err := hasher.Hash("elevenchars"); err == nil {
		t.Error("expected 11-char password to be rejected at min 12")
	}
	if _, err := hasher.Hash("twelve-chars"); err != nil {
		t.Errorf("12-char password rejected: %v", err)
	}
}

func TestHasherVerifyReturnsCredentialMismatch(t *testing.T) {
	hasher := NewHasher(WithCost(4))
	hash, _ := hasher.Hash("some-password")
	err := hasher.Verify("other-password", hash)
	if !errors.IsCode(err, errors.ErrCodeCredentialMismatch) {
		t.Errorf("expected CREDENTIAL_MISMATCH, got %v", err)
	}
}

func TestGeneratePasswordClasses(t *testing.T) {
	pw, err := GeneratePassword(32, GenerateOptions{Digits: true})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(pw) != 32 {
		t.Fatalf("expected 32 chars, got %d", len(pw))
	}
	for _, r := range pw {
		if !strings.ContainsRune(digitChars, r) {
			t.Fatalf("digits-only password contains %q", r)
		}
	}
}

func TestGeneratePasswordExcludesAmbiguous(t *testing.T) {
	pw, err := GeneratePassword(256, DefaultGenerateOptions())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, r := range pw {
		if strings.ContainsRune(ambiguousChars, r) {
			t.Fatalf("ambiguous character %q present", r)
		}
	}
}

func TestGeneratePasswordRequiresClass(t *testing.T) {
	if _, err := GeneratePassword(16, GenerateOptions{}); err == nil {
		t.Error("expected error with no character classes enabled")
	}
	if _, err := GeneratePassword(0, DefaultGenerateOptions()); err == nil {
		t.Error("expected error for zero length")
	}
}

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	a, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars for 32 bytes, got %d", len(a))
	}
	b, _ := GenerateToken(32)
	if a == b {
		t.Error("two generated tokens collided")
	}
}

func TestHMACSignAndVerify(t *testing.T) {
	sig := SignHMAC("payload", "secret-key")
	if !VerifyHMAC("payload", sig, "secret-key") {
		t.Error("valid signature rejected")
	}
	if VerifyHMAC("payload", sig, "other-key") {
		t.Error("signature verified under wrong key")
	}
	if VerifyHMAC("tampered", sig, "secret-key") {
		t.Error("signature verified for tampered payload")
	}
}

func TestSecureCompare(t *testing.T) {
	if !SecureCompare("abc", "abc") {
		t.Error("equal strings compared unequal")
	}
	if SecureCompare("abc", "abd") {
		t.Error("different strings compared equal")
	}
	if SecureCompare("abc", "abcd") {
		t.Error("different lengths compared equal")
	}
}
