package encryption

import (
	"strings"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	enc, err := NewEnvelope("test-master-secret")
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}

	blob, err := enc.Encrypt("hello sensitive world")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if strings.Contains(blob, "sensitive") {
		t.Fatal("ciphertext contains plaintext")
	}

	plain, err := enc.Decrypt(blob)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "hello sensitive world" {
		t.Errorf("round trip mismatch: %q", plain)
	}
}

func TestEnvelopeFreshSaltPerCall(t *testing.T) {
	enc, _ := NewEnvelope("test-master-secret")
	a, _ := enc.Encrypt("same input")
	b, _ := enc.Encrypt("same input")
	if a == b {
		t.Error("two encryptions of the same input produced identical blobs")
	}
}

func TestEnvelopeWrongSecretFails(t *testing.T) {
	enc, _ := NewEnvelope("secret-one")
	other, _ := NewEnvelope("secret-two")

	blob, _ := enc.Encrypt("payload")
	if _, err := other.Decrypt(blob); err == nil {
		t.Error("decryption under a different master secret should fail")
	}
}

func TestEnvelopeRejectsTamperedBlob(t *testing.T) {
	enc, _ := NewEnvelope("test-master-secret")
	blob, _ := enc.Encrypt("payload")

	// Flip a character near the end (inside the ciphertext/tag region).
	tampered := []byte(blob)
	i := len(tampered) - 2
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}
	if _, err := enc.Decrypt(string(tampered)); err == nil {
		t.Error("tampered blob decrypted successfully")
	}
}

func TestEnvelopeRejectsGarbage(t *testing.T) {
	enc, _ := NewEnvelope("test-master-secret")
	for _, bad := range []string{"", "not-base64!!!", "c2hvcnQ="} {
		if _, err := enc.Decrypt(bad); err == nil {
			t.Errorf("expected error for blob %q", bad)
		}
	}
}

func TestNewEnvelopeRequiresSecret(t *testing.T) {
	if _, err := NewEnvelope(""); err == nil {
		t.Error("expected error for empty master secret")
	}
}

func TestFieldHelpers(t *testing.T) {
	enc, _ := NewEnvelope("test-master-secret")
	record := map[string]any{
		"name":     "bob",
		"id_card":  "110101199001012345",
		"phone":    "13800000000",
		"count":    3,
		"untagged": "left alone",
	}

	sensitive := []string{"id_card", "phone", "missing"}
	if err := EncryptFields(enc, record, sensitive); err != nil {
		t.Fatalf("encrypt fields: %v", err)
	}
	if record["id_card"] == "110101199001012345" {
		t.Error("id_card was not encrypted")
	}
	if record["untagged"] != "left alone" {
		t.Error("untagged field was modified")
	}
	if record["count"] != 3 {
		t.Error("non-string field was modified")
	}

	if err := DecryptFields(enc, record, sensitive); err != nil {
		t.Fatalf("decrypt fields: %v", err)
	}
	if record["id_card"] != "110101199001012345" {
		t.Errorf("id_card round trip failed: %v", record["id_card"])
	}
	if record["phone"] != "13800000000" {
		t.Errorf("phone round trip failed: %v", record["phone"])
	}
}
