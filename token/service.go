// Package token issues and verifies the signed JWTs that authorize every
// privileged request.
//
// Access tokens are short-lived; refresh tokens live longer, carry a
// random nonce, and are accepted only by Refresh. Verification always
// checks signature, issuer, audience, expiry, and token type, and reports
// failures as distinct error kinds.
package token

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/loomworks/authcore/errors"
	"github.com/loomworks/authcore/password"
)

// Service issues and verifies access and refresh tokens.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService creates a token service from the given config.
func NewService(cfg *Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	return &Service{cfg: *cfg, now: time.Now}, nil
}

// WithClock overrides the time source. Tests use this to step expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Verified is the result of a successful Verify call.
type Verified struct {
	Claims *Claims
	// ShouldRefresh is true when the token's remaining lifetime is below
	// the configured refresh threshold.
	ShouldRefresh bool
}

// GenerateAccess signs a new access token for the identity.
func (s *Service) GenerateAccess(id Identity) (string, error) {
	return s.generate(id, TypeAccess, s.cfg.AccessTTL, "")
}

// GenerateRefresh signs a new refresh token for the identity with a fresh
// random nonce.
func (s *Service) GenerateRefresh(id Identity) (string, error) {
	nonce, err := password.GenerateToken(16)
	if err != nil {
		return "", fmt.Errorf("token: nonce: %w", err)
	}
	return s.generate(id, TypeRefresh, s.cfg.RefreshTTL, nonce)
}

func (s *Service) generate(id Identity, typ Type, ttl time.Duration, nonce string) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Audience:  gojwt.ClaimStrings{s.cfg.Audience},
			Subject:   id.UserID,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:       id.UserID,
		OrgID:        id.OrgID,
		RoleID:       id.RoleID,
		IsSuperAdmin: id.IsSuperAdmin,
		TokenType:    typ,
		Nonce:        nonce,
	}

	tok := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, optionally prefixed with
// "Bearer ", and checks that its type matches expected. On success the
// decoded claims are returned along with the refresh hint.
func (s *Service) Verify(tokenString string, expected Type) (*Verified, error) {
	tokenString = StripBearer(tokenString)
	if tokenString == "" {
		return nil, errors.EmptyToken()
	}

	claims := &Claims{}
	tok, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(s.cfg.Issuer),
		gojwt.WithAudience(s.cfg.Audience),
		gojwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !tok.Valid {
		return nil, errors.TokenInvalid()
	}

	if claims.TokenType != expected {
		return nil, errors.TokenTypeMismatch(string(expected), string(claims.TokenType))
	}

	verified := &Verified{Claims: claims}
	if claims.ExpiresAt != nil {
		remaining := claims.ExpiresAt.Time.Sub(s.now())
		verified.ShouldRefresh = remaining < s.cfg.RefreshThreshold
	}
	return verified, nil
}

// Refresh verifies a refresh token and mints a new access token carrying
// the same identity claims. Any verification failure is reported as
// INVALID_REFRESH_TOKEN.
func (s *Service) Refresh(refreshToken string) (string, error) {
	verified, err := s.Verify(refreshToken, TypeRefresh)
	if err != nil {
		return "", errors.InvalidRefreshToken().WithCause(err)
	}
	return s.GenerateAccess(verified.Claims.Identity())
}

// DecodeUnverified decodes a token's claims without checking the
// signature or expiry. It exists only to inspect expired tokens (for
// example, to learn which user a stale token belonged to) and must never
// feed an authorization decision.
func (s *Service) DecodeUnverified(tokenString string) (*Claims, error) {
	tokenString = StripBearer(tokenString)
	if tokenString == "" {
		return nil, errors.EmptyToken()
	}
	claims := &Claims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, errors.TokenInvalid().WithCause(err)
	}
	return claims, nil
}

// AccessTTL returns the configured access-token lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.cfg.AccessTTL
}

// StripBearer removes an optional "Bearer " prefix from a token string.
func StripBearer(tokenString string) string {
	tokenString = strings.TrimSpace(tokenString)
	if len(tokenString) > 7 && strings.EqualFold(tokenString[:7], "Bearer ") {
		return strings.TrimSpace(tokenString[7:])
	}
	return tokenString
}

func (s *Service) keyFunc(tok *gojwt.Token) (interface{}, error) {
	if tok.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("token: unexpected signing method: %s", tok.Method.Alg())
	}
	return []byte(s.cfg.Secret), nil
}

// mapParseError translates golang-jwt parse failures into the core's
// distinct error kinds.
func mapParseError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, gojwt.ErrTokenExpired):
		return errors.TokenExpired().WithCause(err)
	case stderrors.Is(err, gojwt.ErrTokenNotValidYet), stderrors.Is(err, gojwt.ErrTokenUsedBeforeIssued):
		return errors.TokenNotYetValid().WithCause(err)
	default:
		return errors.TokenInvalid().WithCause(err)
	}
}
