package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/tenantgate/internal/gateway"
)

// Pages answers the browser routes the gateway forwards. Rendering belongs to
// the frontend; these report what the gateway resolved.
type Pages struct{}

func (Pages) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "home"})
}

func (Pages) Login(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"page": "login"}
	if cb := r.URL.Query().Get("callbackUrl"); cb != "" {
		resp["callback_url"] = cb
	}
	writeJSON(w, http.StatusOK, resp)
}

func (Pages) Dashboard(w http.ResponseWriter, r *http.Request) {
	scope, ok := gateway.ScopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	resp := map[string]any{"page": "dashboard", "user_id": scope.UserID, "role": scope.Role}
	if scope.Admin {
		resp["admin"] = true
	} else {
		resp["tenant"] = map[string]any{
			"id":        scope.TenantID,
			"subdomain": scope.TenantSubdomain,
			"name":      scope.TenantName,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
