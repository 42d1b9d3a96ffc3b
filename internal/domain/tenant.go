package domain

import (
	"time"

	"github.com/google/uuid"
)

type TenantStatus string

const (
	TenantStatusTrial    TenantStatus = "trial"
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// Valid reports whether s is one of the known tenant statuses.
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusTrial, TenantStatusActive, TenantStatusInactive:
		return true
	}
	return false
}

// Serving reports whether requests for a tenant in this status may reach
// the dashboard. Trial workspaces are served like active ones.
func (s TenantStatus) Serving() bool {
	return s == TenantStatusTrial || s == TenantStatusActive
}

// Tenant is a customer workspace. Subdomain is the request-time lookup key
// and never changes after creation.
type Tenant struct {
	ID        uuid.UUID    `json:"id"`
	Subdomain string       `json:"subdomain"`
	Name      string       `json:"name"`
	Status    TenantStatus `json:"status"`
	OwnerID   uuid.UUID    `json:"owner_id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
