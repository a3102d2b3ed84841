package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/loomworks/authcore/errors"
	"github.com/loomworks/authcore/logger"
	"github.com/loomworks/authcore/observability"
	"github.com/loomworks/authcore/password"
	"github.com/loomworks/authcore/ratelimit"
	"github.com/loomworks/authcore/session"
	"github.com/loomworks/authcore/store"
	"github.com/loomworks/authcore/token"
)

const bobPassword = "correct-horse-42"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	gw    *Gateway
	clock *fakeClock
	users *store.Memory[User]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	log := logger.Nop()

	tokens, err := token.NewService(&token.Config{
		Secret: strings.Repeat("s", 32),
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	tokens.WithClock(clock.Now)

	sessions := session.NewManager(session.Config{},
		store.NewMemory[session.Session](),
		store.NewMemory[session.LoginRecord](),
		log,
	).WithClock(clock.Now)

	repCfg := ratelimit.Config{}
	reputation := ratelimit.NewReputation(repCfg,
		store.NewMemoryKV[ratelimit.IPRecord]().WithClock(clock.Now), log,
	).WithClock(clock.Now)
	limiter := ratelimit.NewLimiter(repCfg,
		store.NewMemoryKV[ratelimit.Window]().WithClock(clock.Now),
		store.NewMemory[ratelimit.Violation](),
		reputation, log,
	).WithClock(clock.Now)

	hasher := password.NewHasher(password.WithCost(4))
	users := store.NewMemory[User]()

	hash, err := hasher.Hash(bobPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	seed := []User{
		{
			ID: "u-bob", OrgID: "org-acme", OrgCode: "ACME", Username: "bob",
			PasswordHash: hash, RoleID: "role-clerk", Status: UserActive,
			DisplayName: "Bob Chen", CreatedAt: clock.Now(),
		},
		{
			ID: "u-frozen", OrgID: "org-acme", OrgCode: "ACME", Username: "mallory",
			PasswordHash: hash, RoleID: "role-clerk", Status: UserDisabled,
			CreatedAt: clock.Now(),
		},
	}
	for _, u := range seed {
		if err := users.Insert(context.Background(), u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	gw, err := New(Deps{
		Tokens:     tokens,
		Sessions:   sessions,
		Limiter:    limiter,
		Reputation: reputation,
		Users:      users,
		Hasher:     hasher,
		Log:        log,
	})
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	return &fixture{gw: gw, clock: clock, users: users}
}

func bobCreds() Credentials {
	return Credentials{OrgCode: "ACME", Username: "bob", Password: bobPassword}
}

func testReq(n int) RequestContext {
	return RequestContext{
		IP:        fmt.Sprintf("10.1.0.%d", n),
		UserAgent: fmt.Sprintf("order-app/%d.0", n),
		Path:      "/api/auth/login",
		Method:    "POST",
	}
}

func TestLogin_Succeeds(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.gw.Login(ctx, bobCreds(), testReq(1))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("expected token pair")
	}
	if len(result.SessionID) != 64 {
		t.Errorf("expected 64-char session id, got %d chars", len(result.SessionID))
	}
	if result.ExpiresIn != int64((2 * time.Hour).Seconds()) {
		t.Errorf("unexpected expiresIn %d", result.ExpiresIn)
	}
	if result.User.Username != "bob" || result.User.IsSuperAdmin {
		t.Errorf("unexpected user %+v", result.User)
	}

	verify, err := fx.gw.VerifyToken(ctx, result.AccessToken, result.SessionID)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if !verify.Valid || !verify.SessionValid {
		t.Errorf("expected valid token and session, got %+v", verify)
	}
	if verify.Identity.UserID != "u-bob" || verify.Identity.OrgID != "org-acme" {
		t.Errorf("unexpected identity %+v", verify.Identity)
	}
}

func TestLogin_WrongPasswordCreatesNoSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	creds := bobCreds()
	creds.Password = "wrong-password-1"
	_, err := fx.gw.Login(ctx, creds, testReq(1))
	if !errors.IsCode(err, errors.ErrCodeCredentialMismatch) {
		t.Fatalf("expected CREDENTIAL_MISMATCH, got %v", err)
	}

	active, _ := fx.gw.sessions.ActiveSessions(ctx, "u-bob")
	if len(active) != 0 {
		t.Errorf("failed login must not create a session, got %d", len(active))
	}
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	creds := Credentials{OrgCode: "ACME", Username: "nobody", Password: "whatever-123"}
	unknownErr := func() error {
		_, err := fx.gw.Login(ctx, creds, testReq(1))
		return err
	}()

	wrong := bobCreds()
	wrong.Password = "wrong-password-1"
	wrongErr := func() error {
		_, err := fx.gw.Login(ctx, wrong, testReq(2))
		return err
	}()

	if !errors.IsCode(unknownErr, errors.ErrCodeCredentialMismatch) {
		t.Fatalf("expected CREDENTIAL_MISMATCH for unknown user, got %v", unknownErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("unknown-user and wrong-password errors must be identical: %q vs %q",
			unknownErr.Error(), wrongErr.Error())
	}
}

func TestLogin_DisabledAccountRejected(t *testing.T) {
	fx := newFixture(t)

	creds := Credentials{OrgCode: "ACME", Username: "mallory", Password: bobPassword}
	_, err := fx.gw.Login(context.Background(), creds, testReq(1))
	if !errors.IsCode(err, errors.ErrCodeCredentialMismatch) {
		t.Errorf("expected CREDENTIAL_MISMATCH for disabled account, got %v", err)
	}
}

func TestLogin_ValidationErrorsAggregated(t *testing.T) {
	fx := newFixture(t)

	creds := Credentials{OrgCode: "ac", Username: "x", Password: "short"}
	_, err := fx.gw.Login(context.Background(), creds, testReq(1))
	if !errors.IsCode(err, errors.ErrCodeValidationFailed) {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}

	// All three offending fields surface in one aggregated error.
	msg := err.Error()
	for _, field := range []string{"orgCode", "username", "password"} {
		if !strings.Contains(msg, field) {
			t.Errorf("expected %q in aggregated error, got %q", field, msg)
		}
	}
}

func TestLogin_RateLimited(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	creds := bobCreds()
	creds.Password = "wrong-password-1"
	req := testReq(1)
	for i := 0; i < 5; i++ {
		fx.gw.Login(ctx, creds, req)
	}

	_, err := fx.gw.Login(ctx, bobCreds(), req)
	if !errors.IsCode(err, errors.ErrCodeRateLimitExceeded) {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED on 6th attempt, got %v", err)
	}
	appErr := err.(*errors.AppError)
	if retry, ok := appErr.Details["retry_after"].(int); !ok || retry <= 0 {
		t.Errorf("expected positive retry_after, got %v", appErr.Details["retry_after"])
	}

	// A different client is unaffected.
	if _, err := fx.gw.Login(ctx, bobCreds(), testReq(9)); err != nil {
		t.Errorf("different client should not be limited, got %v", err)
	}
}

func TestVerifyToken_RefreshTokenRejected(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.gw.Login(ctx, bobCreds(), testReq(1))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err = fx.gw.VerifyToken(ctx, result.RefreshToken, "")
	if !errors.IsCode(err, errors.ErrCodeTokenTypeMismatch) {
		t.Errorf("expected TOKEN_TYPE_MISMATCH, got %v", err)
	}
}

func TestRefresh_MintsAccessToken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, _ := fx.gw.Login(ctx, bobCreds(), testReq(1))
	access, err := fx.gw.Refresh(result.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	verify, err := fx.gw.VerifyToken(ctx, access, "")
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if verify.Identity.UserID != "u-bob" {
		t.Errorf("unexpected identity %+v", verify.Identity)
	}

	if _, err := fx.gw.Refresh(result.AccessToken); !errors.IsCode(err, errors.ErrCodeInvalidRefreshToken) {
		t.Errorf("access token must not refresh, got %v", err)
	}
}

func TestLogout_EndsSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, _ := fx.gw.Login(ctx, bobCreds(), testReq(1))
	if err := fx.gw.Logout(ctx, result.AccessToken, result.SessionID, false); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	_, err := fx.gw.VerifyToken(ctx, result.AccessToken, result.SessionID)
	if !errors.IsCode(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("expected SESSION_NOT_FOUND after logout, got %v", err)
	}
}

func TestLogout_AllSessions(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	r1, _ := fx.gw.Login(ctx, bobCreds(), testReq(1))
	r2, _ := fx.gw.Login(ctx, bobCreds(), testReq(2))

	if err := fx.gw.Logout(ctx, r1.AccessToken, r1.SessionID, true); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := fx.gw.VerifyToken(ctx, r2.AccessToken, r2.SessionID); !errors.IsCode(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("logout-all should end every session, got %v", err)
	}
}

func TestChangePassword_TerminatesAllSessions(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.gw.Login(ctx, bobCreds(), testReq(1))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	newPassword := "even-better-pass-77"
	if err := fx.gw.ChangePassword(ctx, "u-bob", bobPassword, newPassword); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	// The old session is gone.
	_, err = fx.gw.VerifyToken(ctx, result.AccessToken, result.SessionID)
	if !errors.IsCode(err, errors.ErrCodeSessionNotFound) && !errors.IsCode(err, errors.ErrCodeSessionExpired) {
		t.Errorf("expected session ended after password change, got %v", err)
	}

	// Old password no longer works, new one does.
	_, err = fx.gw.Login(ctx, bobCreds(), testReq(2))
	if !errors.IsCode(err, errors.ErrCodeCredentialMismatch) {
		t.Errorf("old password should fail, got %v", err)
	}
	creds := bobCreds()
	creds.Password = newPassword
	if _, err := fx.gw.Login(ctx, creds, testReq(3)); err != nil {
		t.Errorf("new password should work, got %v", err)
	}
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	fx := newFixture(t)

	err := fx.gw.ChangePassword(context.Background(), "u-bob", "not-the-password", "new-password-123")
	if !errors.IsCode(err, errors.ErrCodeCredentialMismatch) {
		t.Errorf("expected CREDENTIAL_MISMATCH, got %v", err)
	}
}

func TestChangePassword_WeakNewPassword(t *testing.T) {
	fx := newFixture(t)

	err := fx.gw.ChangePassword(context.Background(), "u-bob", bobPassword, "short")
	if !errors.IsCode(err, errors.ErrCodeValidationFailed) {
		t.Errorf("expected VALIDATION_FAILED for short password, got %v", err)
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.gw.Validate("no-such-schema", map[string]any{})
	if !errors.IsCode(err, errors.ErrCodeValidationFailed) {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestValidate_OrderQuerySanitizes(t *testing.T) {
	fx := newFixture(t)

	sanitized, err := fx.gw.Validate(SchemaOrderQuery, map[string]any{
		"factoryName": "  Golden Stitch  ",
		"page":        "2",
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if sanitized["factoryName"] != "Golden Stitch" {
		t.Errorf("expected trimmed factory name, got %q", sanitized["factoryName"])
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	limit, err := fx.gw.RateLimitMiddleware(ratelimit.ClassQuery)
	if err != nil {
		t.Fatalf("RateLimitMiddleware failed: %v", err)
	}

	req := testReq(1)
	for i := 0; i < 60; i++ {
		d, err := limit(ctx, req, "u-bob")
		if err != nil || !d.Allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i, d.Allowed, err)
		}
	}
	d, err := limit(ctx, req, "u-bob")
	if err != nil {
		t.Fatalf("limit check failed: %v", err)
	}
	if d.Allowed {
		t.Error("61st query in a minute should be rejected")
	}

	// Anonymous requests are limited by client identity, separately.
	if d, _ := limit(ctx, req, ""); !d.Allowed {
		t.Error("anonymous identity should have its own window")
	}

	if _, err := fx.gw.RateLimitMiddleware("BOGUS"); err == nil {
		t.Error("unknown class should be rejected")
	}
}

func TestRateLimitMiddleware_BlockedIP(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	limit, _ := fx.gw.RateLimitMiddleware(ratelimit.ClassDefault)
	req := testReq(1)

	if err := fx.gw.reputation.BlockIP(ctx, req.IP, time.Hour, "manual"); err != nil {
		t.Fatalf("BlockIP failed: %v", err)
	}
	_, err := limit(ctx, req, "u-bob")
	if !errors.IsCode(err, errors.ErrCodeIPBlocked) {
		t.Errorf("expected IP_BLOCKED, got %v", err)
	}

	// Login from the blocked IP is refused too.
	if _, err := fx.gw.Login(ctx, bobCreds(), req); !errors.IsCode(err, errors.ErrCodeIPBlocked) {
		t.Errorf("expected IP_BLOCKED on login, got %v", err)
	}
}

func TestLogin_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	metrics, err := observability.NewAuthMetrics(provider.Meter("gateway-test"))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	fx := newFixture(t)
	fx.gw.metrics = metrics
	ctx := context.Background()

	if _, err := fx.gw.Login(ctx, bobCreds(), testReq(1)); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	wrong := bobCreds()
	wrong.Password = "not-the-password"
	if _, err := fx.gw.Login(ctx, wrong, testReq(1)); err == nil {
		t.Fatal("expected failed login")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "auth.login.total" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected auth.login.total to be recorded")
	}
}

func TestOutcome_Labels(t *testing.T) {
	if got := outcome(nil); got != "success" {
		t.Errorf("expected success, got %q", got)
	}
	if got := outcome(errors.CredentialMismatch()); got != "credential_mismatch" {
		t.Errorf("expected credential_mismatch, got %q", got)
	}
	if got := outcome(fmt.Errorf("plain")); got != "error" {
		t.Errorf("expected error, got %q", got)
	}
}

// downSessions errors on every call, simulating an unreachable session
// store.
type downSessions struct{}

func (downSessions) Find(context.Context, store.Expr, ...store.QueryOption) ([]session.Session, error) {
	return nil, context.DeadlineExceeded
}
func (downSessions) Insert(context.Context, session.Session) error { return context.DeadlineExceeded }
func (downSessions) Update(context.Context, store.Expr, func(session.Session) session.Session) (int, error) {
	return 0, context.DeadlineExceeded
}
func (downSessions) Delete(context.Context, store.Expr) (int, error) {
	return 0, context.DeadlineExceeded
}
func (downSessions) Count(context.Context, store.Expr) (int64, error) {
	return 0, context.DeadlineExceeded
}

func TestVerifyToken_SessionStoreDownFailOpen(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	login, err := fx.gw.Login(ctx, bobCreds(), testReq(1))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Swap in an unreachable session store under the open policy.
	fx.gw.sessions = session.NewManager(
		session.Config{FailurePolicy: session.PolicyOpen},
		downSessions{}, nil, logger.Nop(),
	).WithClock(fx.clock.Now)

	result, err := fx.gw.VerifyToken(ctx, login.AccessToken, login.SessionID)
	if err != nil {
		t.Fatalf("open policy should admit on token alone, got %v", err)
	}
	if !result.Valid {
		t.Error("token itself is valid and must verify")
	}
	if result.SessionValid {
		t.Error("an unverifiable session must not be reported valid")
	}
	if result.Session != nil {
		t.Errorf("open-policy admission carries no session, got %+v", result.Session)
	}
}

func TestVerifyToken_SessionStoreDownFailClosed(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	login, err := fx.gw.Login(ctx, bobCreds(), testReq(1))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	fx.gw.sessions = session.NewManager(
		session.Config{FailurePolicy: session.PolicyClosed},
		downSessions{}, nil, logger.Nop(),
	).WithClock(fx.clock.Now)

	_, err = fx.gw.VerifyToken(ctx, login.AccessToken, login.SessionID)
	if !errors.IsCode(err, errors.ErrCodeStoreUnavailable) {
		t.Errorf("closed policy should deny with STORE_UNAVAILABLE, got %v", err)
	}
}
