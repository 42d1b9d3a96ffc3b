// Package gateway resolves which tenant a request belongs to and decides
// whether the caller may reach it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/session"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"go.uber.org/zap"
)

// TenantDirectory resolves a subdomain to a tenant. A miss is reported as
// store.ErrNotFound.
type TenantDirectory interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error)
}

// SessionResolver verifies and decodes the caller's session. It returns a nil
// session when the request carries none.
type SessionResolver interface {
	Resolve(r *http.Request) (*session.Session, error)
}

type Outcome int

const (
	OutcomeAllow Outcome = iota
	OutcomeRedirect
	OutcomeForbidden
	OutcomeNotFound
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeError:
		return "error"
	}
	return "unknown"
}

// Status is the HTTP status the outcome is answered with.
func (o Outcome) Status() int {
	switch o {
	case OutcomeRedirect:
		return http.StatusFound
	case OutcomeForbidden:
		return http.StatusForbidden
	case OutcomeNotFound:
		return http.StatusNotFound
	case OutcomeError:
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// Reasons label each terminal state for logs and metrics.
const (
	ReasonPublic          = "public"
	ReasonRedirectHome    = "redirect_home"
	ReasonLoginPage       = "login_page"
	ReasonLoginRequired   = "login_required"
	ReasonAdmin           = "admin"
	ReasonTenantNotFound  = "tenant_not_found"
	ReasonTenantInactive  = "tenant_inactive"
	ReasonAuthenticated   = "already_authenticated"
	ReasonBindingMismatch = "binding_mismatch"
	ReasonTenant          = "tenant"
	ReasonLookupFailed    = "lookup_failed"
	ReasonAPIAnonymous    = "api_anonymous"
)

// Decision is the enforcer's verdict for one request.
type Decision struct {
	Outcome Outcome
	Route   Route
	Reason  string
	// Location is the redirect target for OutcomeRedirect.
	Location string
	// Path, when set on OutcomeAllow, replaces the request path.
	Path string
	// Scope is attached to the request context on OutcomeAllow.
	Scope *Scope
	// Denial is attached instead of a scope when an API request proceeds
	// without one for a known reason.
	Denial  *Denial
	Message string
	Err     error
}

type Paths struct {
	Login     string
	Dashboard string
	APIPrefix string
}

func DefaultPaths() Paths {
	return Paths{Login: "/login", Dashboard: "/dashboard", APIPrefix: "/api/"}
}

type Enforcer struct {
	tenants  TenantDirectory
	sessions SessionResolver
	paths    Paths
	logger   *zap.Logger
}

func NewEnforcer(tenants TenantDirectory, sessions SessionResolver, paths Paths, logger *zap.Logger) *Enforcer {
	defaults := DefaultPaths()
	if paths.Login == "" {
		paths.Login = defaults.Login
	}
	if paths.Dashboard == "" {
		paths.Dashboard = defaults.Dashboard
	}
	if paths.APIPrefix == "" {
		paths.APIPrefix = defaults.APIPrefix
	}
	return &Enforcer{tenants: tenants, sessions: sessions, paths: paths, logger: logger}
}

func (e *Enforcer) Paths() Paths {
	return e.paths
}

func (e *Enforcer) isAPI(path string) bool {
	return path+"/" == e.paths.APIPrefix || strings.HasPrefix(path, e.paths.APIPrefix)
}

// Decide runs the request through host classification, tenant lookup and
// session binding.
func (e *Enforcer) Decide(r *http.Request) Decision {
	route := Classify(r.Host)
	if e.isAPI(r.URL.Path) {
		return e.decideAPI(r, route)
	}

	switch route.Kind {
	case RouteAdmin:
		return e.decideAdmin(r, route)
	case RouteTenant:
		return e.decideTenant(r, route)
	default:
		return e.decidePublic(r, route)
	}
}

func (e *Enforcer) decidePublic(r *http.Request, route Route) Decision {
	if r.URL.Path == "/" || r.URL.Path == e.paths.Login {
		return Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonPublic}
	}
	return Decision{Outcome: OutcomeRedirect, Route: route, Reason: ReasonRedirectHome, Location: "/"}
}

func (e *Enforcer) decideAdmin(r *http.Request, route Route) Decision {
	if r.URL.Path == e.paths.Login {
		return Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonLoginPage}
	}

	sess := e.session(r)
	if sess == nil {
		return e.loginRedirect(r, route)
	}
	return Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonAdmin, Scope: adminScope(sess)}
}

func (e *Enforcer) decideTenant(r *http.Request, route Route) Decision {
	tenant, d, ok := e.lookup(r.Context(), route)
	if !ok {
		return d
	}

	sess := e.session(r)
	isLogin := r.URL.Path == e.paths.Login

	switch {
	case sess == nil && !isLogin:
		return e.loginRedirect(r, route)
	case sess == nil:
		return Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonLoginPage}
	case isLogin:
		return Decision{Outcome: OutcomeRedirect, Route: route, Reason: ReasonAuthenticated, Location: e.paths.Dashboard}
	case !boundTo(sess, tenant):
		return e.mismatch(sess, route)
	}

	d = Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonTenant, Scope: tenantScope(tenant, sess)}
	if r.URL.Path == "/" {
		d.Path = e.paths.Dashboard
	}
	return d
}

// decideAPI never redirects. Requests without a resolvable tenant or session
// proceed unscoped so that health and auth endpoints stay reachable; handlers
// that need a tenant answer 401, or the status of the attached Denial for an
// unknown workspace (404) or a session bound elsewhere (403).
func (e *Enforcer) decideAPI(r *http.Request, route Route) Decision {
	switch route.Kind {
	case RouteAdmin:
		if sess := e.session(r); sess != nil {
			return Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonAdmin, Scope: adminScope(sess)}
		}
		return Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonAPIAnonymous}
	case RouteTenant:
	default:
		return Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonPublic}
	}

	tenant, d, ok := e.lookup(r.Context(), route)
	if !ok {
		if d.Outcome == OutcomeNotFound {
			return Decision{
				Outcome: OutcomeAllow,
				Route:   route,
				Reason:  ReasonTenantNotFound,
				Denial:  &Denial{Status: http.StatusNotFound, Message: d.Message},
			}
		}
		return d
	}

	sess := e.session(r)
	if sess == nil {
		return Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonAPIAnonymous}
	}
	if !boundTo(sess, tenant) {
		d := e.mismatch(sess, route)
		return Decision{
			Outcome: OutcomeAllow,
			Route:   route,
			Reason:  d.Reason,
			Denial:  &Denial{Status: http.StatusForbidden, Message: d.Message},
		}
	}
	return Decision{Outcome: OutcomeAllow, Route: route, Reason: ReasonTenant, Scope: tenantScope(tenant, sess)}
}

// lookup resolves the tenant for route. When ok is false the returned
// decision is terminal.
func (e *Enforcer) lookup(ctx context.Context, route Route) (*domain.Tenant, Decision, bool) {
	tenant, err := e.tenants.GetBySubdomain(ctx, route.Subdomain)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Decision{
			Outcome: OutcomeNotFound,
			Route:   route,
			Reason:  ReasonTenantNotFound,
			Message: fmt.Sprintf("workspace %q does not exist", route.Subdomain),
		}, false
	}
	if err != nil {
		return nil, Decision{
			Outcome: OutcomeError,
			Route:   route,
			Reason:  ReasonLookupFailed,
			Message: "failed to resolve workspace",
			Err:     err,
		}, false
	}
	if !tenant.Status.Serving() {
		return nil, Decision{
			Outcome: OutcomeForbidden,
			Route:   route,
			Reason:  ReasonTenantInactive,
			Message: fmt.Sprintf("workspace %q is inactive", route.Subdomain),
		}, false
	}
	return tenant, Decision{}, true
}

func (e *Enforcer) session(r *http.Request) *session.Session {
	sess, err := e.sessions.Resolve(r)
	if err != nil {
		e.logger.Debug("ignoring invalid session", zap.String("host", r.Host), zap.Error(err))
		return nil
	}
	return sess
}

func (e *Enforcer) mismatch(sess *session.Session, route Route) Decision {
	msg := fmt.Sprintf("your session belongs to workspace %q and cannot access workspace %q", sess.Tenant.Subdomain, route.Subdomain)
	for _, m := range sess.Memberships {
		if m.Subdomain == route.Subdomain {
			msg += "; switch workspaces to continue"
			break
		}
	}
	return Decision{
		Outcome: OutcomeForbidden,
		Route:   route,
		Reason:  ReasonBindingMismatch,
		Message: msg,
	}
}

func (e *Enforcer) loginRedirect(r *http.Request, route Route) Decision {
	callback := r.URL.Path
	if r.URL.RawQuery != "" {
		callback += "?" + r.URL.RawQuery
	}
	q := url.Values{"callbackUrl": {callback}}
	return Decision{
		Outcome:  OutcomeRedirect,
		Route:    route,
		Reason:   ReasonLoginRequired,
		Location: e.paths.Login + "?" + q.Encode(),
	}
}

// boundTo also compares ids so a session issued for a deleted workspace does
// not carry over to a new one that reuses the subdomain.
func boundTo(sess *session.Session, t *domain.Tenant) bool {
	return sess.Tenant.Subdomain == t.Subdomain && sess.Tenant.ID == t.ID
}

func tenantScope(t *domain.Tenant, sess *session.Session) *Scope {
	return &Scope{
		TenantID:        t.ID,
		TenantSubdomain: t.Subdomain,
		TenantName:      t.Name,
		UserID:          sess.UserID,
		Email:           sess.Email,
		Role:            sess.Role,
	}
}

func adminScope(sess *session.Session) *Scope {
	return &Scope{UserID: sess.UserID, Email: sess.Email, Role: sess.Role, Admin: true}
}
