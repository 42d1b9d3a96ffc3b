package gateway

import (
	"context"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/google/uuid"
)

type contextKey string

const (
	scopeContextKey  contextKey = "scope"
	denialContextKey contextKey = "denial"
)

// Scope is the identity the gateway resolved for a request. Handlers must use
// it as the only source of tenant scoping; tenant ids in request bodies or
// query strings are client input.
type Scope struct {
	TenantID        uuid.UUID
	TenantSubdomain string
	TenantName      string
	UserID          uuid.UUID
	Email           string
	Role            domain.Role
	// Admin is set for requests allowed on the admin host. Tenant fields are
	// empty in that case.
	Admin bool
}

func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey, s)
}

// ScopeFromContext returns the scope attached by the gateway, if any.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeContextKey).(Scope)
	return s, ok
}

// TenantScopeFromContext returns the scope only when it is bound to a tenant.
func TenantScopeFromContext(ctx context.Context) (Scope, bool) {
	s, ok := ScopeFromContext(ctx)
	if !ok || s.Admin || s.TenantID == uuid.Nil {
		return Scope{}, false
	}
	return s, true
}

// Denial records why an API request proceeded without a scope.
type Denial struct {
	Status  int
	Message string
}

func WithDenial(ctx context.Context, d Denial) context.Context {
	return context.WithValue(ctx, denialContextKey, d)
}

func DenialFromContext(ctx context.Context) (Denial, bool) {
	d, ok := ctx.Value(denialContextKey).(Denial)
	return d, ok
}
