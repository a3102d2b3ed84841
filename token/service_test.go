package token

import (
	"testing"
	"time"

	"github.com/loomworks/authcore/errors"
)

var testIdentity = Identity{
	UserID:       "user-1",
	OrgID:        "org-acme",
	RoleID:       "role-clerk",
	IsSuperAdmin: false,
}

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(&Config{Secret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.WithClock(func() time.Time { return now })
	return svc, &now
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	signed, err := svc.GenerateAccess(testIdentity)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	verified, err := svc.Verify(signed, TypeAccess)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	c := verified.Claims
	if c.UserID != testIdentity.UserID || c.OrgID != testIdentity.OrgID ||
		c.RoleID != testIdentity.RoleID || c.IsSuperAdmin != testIdentity.IsSuperAdmin {
		t.Errorf("claims mismatch: %+v", c)
	}
	if c.TokenType != TypeAccess {
		t.Errorf("expected type access, got %s", c.TokenType)
	}
	if verified.ShouldRefresh {
		t.Error("fresh token should not be flagged for refresh")
	}
}

func TestTokenTypeMismatch(t *testing.T) {
	svc, _ := newTestService(t)

	refresh, _ := svc.GenerateRefresh(testIdentity)
	if _, err := svc.Verify(refresh, TypeAccess); !errors.IsCode(err, errors.ErrCodeTokenTypeMismatch) {
		t.Errorf("refresh-as-access: expected TOKEN_TYPE_MISMATCH, got %v", err)
	}

	access, _ := svc.GenerateAccess(testIdentity)
	if _, err := svc.Verify(access, TypeRefresh); !errors.IsCode(err, errors.ErrCodeTokenTypeMismatch) {
		t.Errorf("access-as-refresh: expected TOKEN_TYPE_MISMATCH, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	svc, now := newTestService(t)
	signed, _ := svc.GenerateAccess(testIdentity)

	*now = now.Add(3 * time.Hour)
	if _, err := svc.Verify(signed, TypeAccess); !errors.IsCode(err, errors.ErrCodeTokenExpired) {
		t.Errorf("expected TOKEN_EXPIRED, got %v", err)
	}

	// The expired token can still be decoded for inspection.
	claims, err := svc.DecodeUnverified(signed)
	if err != nil {
		t.Fatalf("decode unverified: %v", err)
	}
	if claims.UserID != testIdentity.UserID {
		t.Errorf("decoded wrong user: %s", claims.UserID)
	}
}

func TestShouldRefreshNearExpiry(t *testing.T) {
	svc, now := newTestService(t)
	signed, _ := svc.GenerateAccess(testIdentity)

	// 4 minutes of lifetime remain: below the 5 minute threshold.
	*now = now.Add(2*time.Hour - 4*time.Minute)
	verified, err := svc.Verify(signed, TypeAccess)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified.ShouldRefresh {
		t.Error("token within refresh threshold should be flagged")
	}
}

func TestBearerPrefixStripped(t *testing.T) {
	svc, _ := newTestService(t)
	signed, _ := svc.GenerateAccess(testIdentity)

	if _, err := svc.Verify("Bearer "+signed, TypeAccess); err != nil {
		t.Errorf("bearer-prefixed token rejected: %v", err)
	}
	if _, err := svc.Verify("bearer "+signed, TypeAccess); err != nil {
		t.Errorf("lowercase bearer prefix rejected: %v", err)
	}
}

func TestEmptyToken(t *testing.T) {
	svc, _ := newTestService(t)
	for _, tok := range []string{"", "   ", "Bearer "} {
		if _, err := svc.Verify(tok, TypeAccess); !errors.IsCode(err, errors.ErrCodeEmptyToken) {
			t.Errorf("token %q: expected EMPTY_TOKEN, got %v", tok, err)
		}
	}
}

func TestMalformedToken(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Verify("not.a.jwt", TypeAccess); !errors.IsCode(err, errors.ErrCodeTokenInvalid) {
		t.Errorf("expected TOKEN_INVALID, got %v", err)
	}
}

func TestForeignSignatureRejected(t *testing.T) {
	svc, _ := newTestService(t)
	other, _ := NewService(&Config{Secret: "ffffffffffffffffffffffffffffffff"})
	foreign, _ := other.GenerateAccess(testIdentity)

	if _, err := svc.Verify(foreign, TypeAccess); !errors.IsCode(err, errors.ErrCodeTokenInvalid) {
		t.Errorf("expected TOKEN_INVALID for foreign signature, got %v", err)
	}
}

func TestRefreshMintsAccess(t *testing.T) {
	svc, _ := newTestService(t)
	refresh, _ := svc.GenerateRefresh(testIdentity)

	access, err := svc.Refresh(refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	verified, err := svc.Verify(access, TypeAccess)
	if err != nil {
		t.Fatalf("verify minted access: %v", err)
	}
	if verified.Claims.Identity() != testIdentity {
		t.Errorf("identity not carried through refresh: %+v", verified.Claims)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newTestService(t)
	access, _ := svc.GenerateAccess(testIdentity)

	if _, err := svc.Refresh(access); !errors.IsCode(err, errors.ErrCodeInvalidRefreshToken) {
		t.Errorf("expected INVALID_REFRESH_TOKEN, got %v", err)
	}
	if _, err := svc.Refresh("garbage"); !errors.IsCode(err, errors.ErrCodeInvalidRefreshToken) {
		t.Errorf("expected INVALID_REFRESH_TOKEN for garbage, got %v", err)
	}
}

func TestRefreshTokenNonceUnique(t *testing.T) {
	svc, _ := newTestService(t)
	a, _ := svc.GenerateRefresh(testIdentity)
	b, _ := svc.GenerateRefresh(testIdentity)

	ca, _ := svc.DecodeUnverified(a)
	cb, _ := svc.DecodeUnverified(b)
	if ca.Nonce == "" || cb.Nonce == "" {
		t.Fatal("refresh tokens must carry a nonce")
	}
	if ca.Nonce == cb.Nonce {
		t.Error("two refresh tokens share a nonce")
	}
}

func TestConfigValidation(t *testing.T) {
	if _, err := NewService(&Config{}); err == nil {
		t.Error("expected error for missing secret")
	}
	if _, err := NewService(&Config{Secret: "short"}); err == nil {
		t.Error("expected error for short secret")
	}
}
