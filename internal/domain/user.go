package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// CanManage reports whether the role may change workspace settings such as
// integration credentials.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	CurrentTenantID *uuid.UUID `json:"current_tenant_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Membership is a user's role inside one tenant, joined with the tenant
// fields the session needs.
type Membership struct {
	TenantID        uuid.UUID    `json:"tenant_id"`
	TenantSubdomain string       `json:"tenant_subdomain"`
	TenantName      string       `json:"tenant_name"`
	TenantStatus    TenantStatus `json:"tenant_status"`
	Role            Role         `json:"role"`
}
