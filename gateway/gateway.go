package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loomworks/authcore/errors"
	"github.com/loomworks/authcore/logger"
	"github.com/loomworks/authcore/observability"
	"github.com/loomworks/authcore/password"
	"github.com/loomworks/authcore/ratelimit"
	"github.com/loomworks/authcore/session"
	"github.com/loomworks/authcore/store"
	"github.com/loomworks/authcore/token"
	"github.com/loomworks/authcore/validation"
)

// dummyHash is a valid bcrypt hash compared against when the username is
// unknown, so lookup misses and wrong passwords take similar time.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Credentials are the login inputs.
type Credentials struct {
	OrgCode  string `json:"orgCode"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RequestContext carries the request attributes the gateway needs from
// the transport layer.
type RequestContext struct {
	IP        string
	UserAgent string
	Platform  string
	Path      string
	Method    string
}

func (r RequestContext) clientInfo() session.ClientInfo {
	return session.ClientInfo{IP: r.IP, UserAgent: r.UserAgent, Platform: r.Platform}
}

func (r RequestContext) requestInfo() ratelimit.RequestInfo {
	return ratelimit.RequestInfo{IP: r.IP, UserAgent: r.UserAgent, Path: r.Path, Method: r.Method}
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"`
	SessionID    string   `json:"sessionId"`
	User         UserInfo `json:"user"`
}

// VerifyResult is returned by VerifyToken.
type VerifyResult struct {
	Valid         bool
	Identity      token.Identity
	ShouldRefresh bool
	SessionValid  bool
	Session       *session.Session
}

// Decryptor decrypts sensitive user fields stored at rest.
type Decryptor interface {
	Decrypt(blob string) (string, error)
}

// Deps wires the gateway's collaborators. Tokens, Sessions, Limiter,
// Users, Hasher, and Log are required; Reputation, Crypt, and Schemas
// are optional.
type Deps struct {
	Tokens     *token.Service
	Sessions   *session.Manager
	Limiter    *ratelimit.Limiter
	Reputation *ratelimit.Reputation
	Users      store.Collection[User]
	Hasher     *password.Hasher
	Crypt      Decryptor
	Schemas    *SchemaRegistry
	Metrics    *observability.AuthMetrics
	Log        *logger.Logger
}

// Gateway is the auth surface consumed by the business CRUD handlers.
type Gateway struct {
	tokens     *token.Service
	sessions   *session.Manager
	limiter    *ratelimit.Limiter
	reputation *ratelimit.Reputation
	users      store.Collection[User]
	hasher     *password.Hasher
	crypt      Decryptor
	schemas    *SchemaRegistry
	metrics    *observability.AuthMetrics
	log        *logger.Logger
	loginClass ratelimit.ClassConfig
}

// New creates a Gateway from its dependencies.
func New(deps Deps) (*Gateway, error) {
	switch {
	case deps.Tokens == nil:
		return nil, fmt.Errorf("gateway: token service is required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("gateway: session manager is required")
	case deps.Limiter == nil:
		return nil, fmt.Errorf("gateway: rate limiter is required")
	case deps.Users == nil:
		return nil, fmt.Errorf("gateway: user store is required")
	case deps.Hasher == nil:
		return nil, fmt.Errorf("gateway: password hasher is required")
	case deps.Log == nil:
		return nil, fmt.Errorf("gateway: logger is required")
	}
	if deps.Schemas == nil {
		deps.Schemas = NewSchemaRegistry()
	}
	loginClass, _ := ratelimit.ClassByName(ratelimit.ClassLogin)
	return &Gateway{
		tokens:     deps.Tokens,
		sessions:   deps.Sessions,
		limiter:    deps.Limiter,
		reputation: deps.Reputation,
		users:      deps.Users,
		hasher:     deps.Hasher,
		crypt:      deps.Crypt,
		schemas:    deps.Schemas,
		metrics:    deps.Metrics,
		log:        deps.Log.WithComponent("gateway"),
		loginClass: loginClass,
	}, nil
}

// Login authenticates credentials, admits a session, and issues a token
// pair. Unknown usernames and wrong passwords fail identically.
func (g *Gateway) Login(ctx context.Context, creds Credentials, req RequestContext) (*LoginResult, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanLogin)
	defer span.End()

	start := time.Now()
	result, err := g.login(ctx, creds, req)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	if g.metrics != nil {
		g.metrics.RecordLogin(ctx, outcome(err), time.Since(start))
	}
	return result, err
}

func (g *Gateway) login(ctx context.Context, creds Credentials, req RequestContext) (*LoginResult, error) {
	sanitized, err := g.Validate(SchemaLogin, map[string]any{
		"orgCode":  creds.OrgCode,
		"username": creds.Username,
		"password": creds.Password,
	})
	if err != nil {
		return nil, err
	}
	orgCode, _ := sanitized["orgCode"].(string)
	username, _ := sanitized["username"].(string)

	if g.reputation != nil {
		if err := g.reputation.Guard(ctx, req.IP); err != nil {
			return nil, err
		}
	}

	identifier := ratelimit.ClientIdentifier(req.IP, req.UserAgent)
	decision, err := g.limiter.Check(ctx, identifier, g.loginClass, req.requestInfo())
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, decision.Err()
	}

	user, err := g.findUser(ctx, orgCode, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a hash comparison so the miss is not observable by timing.
		_ = g.hasher.Verify(creds.Password, dummyHash)
		g.log.Warn("login failed for unknown user", map[string]interface{}{
			logger.FieldClientIP: req.IP,
			"org_code":           orgCode,
		})
		return nil, errors.CredentialMismatch()
	}

	if err := g.hasher.Verify(creds.Password, user.PasswordHash); err != nil {
		g.recordLogin(ctx, user.ID, req, false)
		g.log.Warn("login failed for wrong password", map[string]interface{}{
			logger.FieldUserID:   user.ID,
			logger.FieldClientIP: req.IP,
		})
		return nil, errors.CredentialMismatch()
	}

	if user.Status != UserActive {
		g.recordLogin(ctx, user.ID, req, false)
		g.log.Warn("login rejected for inactive account", map[string]interface{}{
			logger.FieldUserID: user.ID,
			"status":           user.Status,
		})
		return nil, errors.CredentialMismatch()
	}

	g.recordLogin(ctx, user.ID, req, true)
	g.flagSuspicious(ctx, user.ID, req)

	accessToken, err := g.tokens.GenerateAccess(user.Identity())
	if err != nil {
		return nil, errors.Internal(err)
	}
	refreshToken, err := g.tokens.GenerateRefresh(user.Identity())
	if err != nil {
		return nil, errors.Internal(err)
	}

	sess, err := g.sessions.Create(ctx, user.ID, req.clientInfo(), password.HashSHA256(accessToken))
	if err != nil {
		return nil, err
	}

	g.log.Info("login succeeded", map[string]interface{}{
		logger.FieldUserID:    user.ID,
		logger.FieldOrgID:     user.OrgID,
		logger.FieldSessionID: sess.ID,
	})
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(g.tokens.AccessTTL() / time.Second),
		SessionID:    sess.ID,
		User:         g.userInfo(*user),
	}, nil
}

// VerifyToken validates an access token and, when sessionID is given,
// its session. Session store failures follow the session manager's
// failure policy.
func (g *Gateway) VerifyToken(ctx context.Context, tokenString, sessionID string) (*VerifyResult, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanVerifyToken)
	defer span.End()

	result, err := g.verifyToken(ctx, tokenString, sessionID)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	if g.metrics != nil {
		g.metrics.RecordTokenVerify(ctx, outcome(err))
	}
	return result, err
}

func (g *Gateway) verifyToken(ctx context.Context, tokenString, sessionID string) (*VerifyResult, error) {
	verified, err := g.tokens.Verify(tokenString, token.TypeAccess)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Valid:         true,
		Identity:      verified.Claims.Identity(),
		ShouldRefresh: verified.ShouldRefresh,
	}
	if sessionID == "" {
		return result, nil
	}

	sess, err := g.sessions.Validate(ctx, sessionID, verified.Claims.UserID)
	if err != nil {
		return nil, err
	}
	// A nil session with no error is the manager's fail-open result:
	// the store was unreachable and the request is admitted on the
	// token alone, so the session stays unverified.
	if sess != nil {
		result.SessionValid = true
		result.Session = sess
	}
	return result, nil
}

// Refresh mints a new access token from a refresh token.
func (g *Gateway) Refresh(refreshToken string) (string, error) {
	return g.tokens.Refresh(refreshToken)
}

// Logout ends the named session, or every session for the token's user
// when logoutAll is set. Logging out an already-ended session is a no-op.
func (g *Gateway) Logout(ctx context.Context, tokenString, sessionID string, logoutAll bool) error {
	verified, err := g.tokens.Verify(tokenString, token.TypeAccess)
	if err != nil {
		return err
	}

	userID := verified.Claims.UserID
	if logoutAll {
		_, err = g.sessions.Terminate(ctx, "", userID, session.ReasonLogoutAll)
	} else {
		_, err = g.sessions.Terminate(ctx, sessionID, userID, session.ReasonLogout)
	}
	return err
}

// ChangePassword verifies the current password, stores the new hash, and
// terminates every session so all devices must log in again.
func (g *Gateway) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if _, err := g.Validate(SchemaChangePassword, map[string]any{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}); err != nil {
		return err
	}

	matches, err := g.users.Find(ctx, store.Eq("id", userID))
	if err != nil {
		return errors.StoreUnavailable(err)
	}
	if len(matches) == 0 {
		return errors.CredentialMismatch()
	}
	user := matches[0]

	if err := g.hasher.Verify(currentPassword, user.PasswordHash); err != nil {
		return errors.CredentialMismatch()
	}

	newHash, err := g.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if _, err := g.users.Update(ctx, store.Eq("id", userID), func(u User) User {
		u.PasswordHash = newHash
		return u
	}); err != nil {
		return errors.StoreUnavailable(err)
	}

	n, err := g.sessions.Terminate(ctx, "", userID, session.ReasonPasswordChanged)
	if err != nil {
		return err
	}
	g.log.Info("password changed", map[string]interface{}{
		logger.FieldUserID:    userID,
		"sessions_terminated": n,
	})
	return nil
}

// Validate checks params against a named schema and returns the
// sanitized values, or an aggregated validation error.
func (g *Gateway) Validate(schemaName string, params map[string]any) (map[string]any, error) {
	schema, ok := g.schemas.Lookup(schemaName)
	if !ok {
		return nil, errors.ValidationFailed(fmt.Sprintf("unknown validation schema %q", schemaName), nil)
	}
	result := validation.ValidateParams(params, schema.Required, schema.Rules)
	if err := result.ToError(); err != nil {
		return nil, err
	}
	return result.Sanitized, nil
}

// LimitFunc applies one rate-limit class to a request. An empty userID
// means the request is anonymous and is limited by client identity.
type LimitFunc func(ctx context.Context, req RequestContext, userID string) (ratelimit.Decision, error)

// RateLimitMiddleware builds a LimitFunc for the named class.
func (g *Gateway) RateLimitMiddleware(className string) (LimitFunc, error) {
	class, ok := ratelimit.ClassByName(className)
	if !ok {
		return nil, fmt.Errorf("gateway: unknown rate limit class %q", className)
	}
	return func(ctx context.Context, req RequestContext, userID string) (ratelimit.Decision, error) {
		if g.reputation != nil {
			if err := g.reputation.Guard(ctx, req.IP); err != nil {
				return ratelimit.Decision{}, err
			}
		}
		identifier := ratelimit.ClientIdentifier(req.IP, req.UserAgent)
		if userID != "" {
			identifier = ratelimit.UserIdentifier(userID)
		}
		return g.limiter.Check(ctx, identifier, class, req.requestInfo())
	}, nil
}

// Schemas exposes the schema registry so handlers can register their own.
func (g *Gateway) Schemas() *SchemaRegistry {
	return g.schemas
}

func (g *Gateway) findUser(ctx context.Context, orgCode, username string) (*User, error) {
	matches, err := g.users.Find(ctx, store.And(
		store.Eq("org_code", orgCode),
		store.Eq("username", username),
	), store.WithLimit(1))
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func (g *Gateway) recordLogin(ctx context.Context, userID string, req RequestContext, success bool) {
	if err := g.sessions.RecordLogin(ctx, userID, req.clientInfo(), success); err != nil {
		g.log.WithError(err).Warn("failed to record login attempt", map[string]interface{}{
			logger.FieldUserID: userID,
		})
	}
}

// flagSuspicious reports abnormal login patterns. Detection feeds the
// IP reputation tracker; it does not deny the login by itself.
func (g *Gateway) flagSuspicious(ctx context.Context, userID string, req RequestContext) {
	report, err := g.sessions.DetectSuspiciousActivity(ctx, userID)
	if err != nil {
		g.log.WithError(err).Warn("suspicious activity check failed", map[string]interface{}{
			logger.FieldUserID: userID,
		})
		return
	}
	if !report.Suspicious {
		return
	}
	g.log.Warn("suspicious login pattern detected", map[string]interface{}{
		logger.FieldUserID:   userID,
		logger.FieldReason:   report.Reason,
		logger.FieldClientIP: req.IP,
		"login_count":        report.LoginCount,
		"distinct_ips":       report.DistinctIPs,
		"distinct_agents":    report.DistinctAgents,
	})
	if g.reputation != nil && req.IP != "" {
		if err := g.reputation.MarkSuspicious(ctx, req.IP, report.Reason); err != nil {
			g.log.WithError(err).Warn("failed to mark suspicious ip", map[string]interface{}{
				logger.FieldClientIP: req.IP,
			})
		}
	}
}

func (g *Gateway) userInfo(user User) UserInfo {
	info := user.info()
	if g.crypt == nil {
		return info
	}
	if user.Phone != "" {
		if plain, err := g.crypt.Decrypt(user.Phone); err == nil {
			info.Phone = plain
		}
	}
	if user.Email != "" {
		if plain, err := g.crypt.Decrypt(user.Email); err == nil {
			info.Email = plain
		}
	}
	return info
}

// outcome labels a result for metrics, using the error code where one
// exists.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return strings.ToLower(string(appErr.Code))
	}
	return "error"
}
