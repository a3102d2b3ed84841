package gateway

import (
	"time"

	"github.com/loomworks/authcore/token"
)

// User statuses.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// User is the account record the gateway authenticates against. Phone
// and Email may be stored encrypted; the gateway decrypts them for the
// login result when an encryptor is configured.
type User struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	OrgCode      string    `json:"org_code"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	RoleID       string    `json:"role_id"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) Field(name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "org_id":
		return u.OrgID, true
	case "org_code":
		return u.OrgCode, true
	case "username":
		return u.Username, true
	case "role_id":
		return u.RoleID, true
	case "status":
		return u.Status, true
	case "is_super_admin":
		return u.IsSuperAdmin, true
	case "created_at":
		return u.CreatedAt, true
	default:
		return nil, false
	}
}

// Identity maps the user onto token claims.
func (u User) Identity() token.Identity {
	return token.Identity{
		UserID:       u.ID,
		OrgID:        u.OrgID,
		RoleID:       u.RoleID,
		IsSuperAdmin: u.IsSuperAdmin,
	}
}

// UserInfo is the safe view of a user returned to callers. It never
// carries the password hash.
type UserInfo struct {
	ID           string `json:"id"`
	OrgID        string `json:"org_id"`
	OrgCode      string `json:"org_code"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	RoleID       string `json:"role_id"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

func (u User) info() UserInfo {
	return UserInfo{
		ID:           u.ID,
		OrgID:        u.OrgID,
		OrgCode:      u.OrgCode,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		Phone:        u.Phone,
		Email:        u.Email,
		RoleID:       u.RoleID,
		IsSuperAdmin: u.IsSuperAdmin,
	}
}
