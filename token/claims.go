package token

import (
	gojwt "github.com/golang-jwt/jwt/v5"
)

// Type distinguishes access tokens from refresh tokens.
type Type string

const (
	// TypeAccess authorizes individual API calls.
	TypeAccess Type = "access"
	// TypeRefresh is used solely to mint new access tokens.
	TypeRefresh Type = "refresh"
)

// Identity is the application-level identity carried in every token.
type Identity struct {
	UserID       string `json:"user_id"`
	OrgID        string `json:"org_id"`
	RoleID       string `json:"role_id"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// Claims is the full JWT claims set for the authentication core.
// Refresh tokens additionally carry a unique nonce so two refresh tokens
// minted for the same identity are never correlatable by value.
type Claims struct {
	gojwt.RegisteredClaims
	UserID       string `json:"user_id"`
	OrgID        string `json:"org_id"`
	RoleID       string `json:"role_id"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	TokenType    Type   `json:"type"`
	Nonce        string `json:"nonce,omitempty"`
}

// Identity extracts the application identity from the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:       c.UserID,
		OrgID:        c.OrgID,
		RoleID:       c.RoleID,
		IsSuperAdmin: c.IsSuperAdmin,
	}
}
