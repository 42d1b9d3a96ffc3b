package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/tenantgate/internal/gateway"
)

// RequireTenant rejects API requests the gateway did not bind to a tenant.
// A recorded denial keeps its own status so a wrong-workspace session is
// answered 403, not 401.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := gateway.TenantScopeFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if d, ok := gateway.DenialFromContext(r.Context()); ok {
			writeError(w, d.Status, d.Message)
			return
		}
		writeError(w, http.StatusUnauthorized, "authentication required")
	})
}

// RequireAdmin admits only requests scoped on the admin host.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := gateway.ScopeFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !s.Admin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
