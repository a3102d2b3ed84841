package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format json, got %s", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{Level: "info", Format: "json"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := &Config{Level: "verbose", Format: "json"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}

	badFmt := &Config{Level: "info", Format: "xml"}
	if err := badFmt.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestFieldsHelper(t *testing.T) {
	m := Fields("user_id", "u1", "count", 3)
	if m["user_id"] != "u1" {
		t.Errorf("expected u1, got %v", m["user_id"])
	}
	if m["count"] != 3 {
		t.Errorf("expected 3, got %v", m["count"])
	}

	// Odd trailing value is dropped.
	odd := Fields("a", 1, "dangling")
	if len(odd) != 1 {
		t.Errorf("expected 1 entry, got %d", len(odd))
	}
}

func TestWithComponentDoesNotMutateParent(t *testing.T) {
	base := Nop()
	tagged := base.WithComponent("session")
	if tagged == base {
		t.Error("WithComponent should return a new logger")
	}
	// Both must remain usable.
	base.Info("parent")
	tagged.Info("child")
}

func TestSensitiveFieldsRedacted(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&Config{Level: "info", Format: "json"}, "test", &buf)

	log.Info("login attempt", map[string]interface{}{
		"user_id":  "u1",
		"password": "hunter2",
	})

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("password value leaked into log output: %s", out)
	}
	if !strings.Contains(out, "[redacted]") {
		t.Errorf("expected redaction marker in output: %s", out)
	}
	if !strings.Contains(out, "u1") {
		t.Errorf("non-sensitive field should pass through: %s", out)
	}
}

func TestWithFieldsRedacts(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&Config{Level: "info", Format: "json"}, "test", &buf)

	log.WithFields(map[string]interface{}{"refresh_token": "rt-secret"}).Info("refresh")

	if strings.Contains(buf.String(), "rt-secret") {
		t.Errorf("token value leaked into log output: %s", buf.String())
	}
}
