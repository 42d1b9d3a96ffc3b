package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPages_Dashboard(t *testing.T) {
	rec := httptest.NewRecorder()
	Pages{}.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	scope := gateway.Scope{TenantID: uuid.New(), TenantSubdomain: "acme", TenantName: "Acme", UserID: uuid.New(), Role: domain.RoleMember}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec = httptest.NewRecorder()
	Pages{}.Dashboard(rec, req.WithContext(gateway.WithScope(req.Context(), scope)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tenant struct {
			Subdomain string `json:"subdomain"`
		} `json:"tenant"`
		Role domain.Role `json:"role"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "acme", body.Tenant.Subdomain)
	assert.Equal(t, domain.RoleMember, body.Role)
}

func TestPages_LoginEchoesCallback(t *testing.T) {
	rec := httptest.NewRecorder()
	Pages{}.Login(rec, httptest.NewRequest(http.MethodGet, "/login?callbackUrl=%2Freports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"callback_url":"/reports"`)
}
