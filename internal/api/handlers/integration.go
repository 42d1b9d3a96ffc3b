package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/tenantgate/internal/api/middleware"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// IntegrationHandler manages the current workspace's third-party tokens. The
// workspace always comes from the gateway scope.
type IntegrationHandler struct {
	svc    *service.CredentialService
	logger *zap.Logger
}

func NewIntegrationHandler(svc *service.CredentialService, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{svc: svc, logger: logger}
}

type putIntegrationRequest struct {
	AccessToken string `json:"access_token"`
	AccountURI  string `json:"account_uri"`
}

func (h *IntegrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := gateway.TenantScopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status, err := h.svc.Status(r.Context(), scope.TenantID, provider(r))
	if err != nil {
		h.fail(w, r, scope, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *IntegrationHandler) Put(w http.ResponseWriter, r *http.Request) {
	scope, ok := gateway.TenantScopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !scope.Role.CanManage() {
		writeError(w, http.StatusForbidden, "owner or admin role required")
		return
	}

	var req putIntegrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.svc.Put(r.Context(), scope.TenantID, provider(r), service.CredentialInput{
		AccessToken: req.AccessToken,
		AccountURI:  req.AccountURI,
	})
	if err != nil {
		h.fail(w, r, scope, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *IntegrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := gateway.TenantScopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !scope.Role.CanManage() {
		writeError(w, http.StatusForbidden, "owner or admin role required")
		return
	}

	if err := h.svc.Delete(r.Context(), scope.TenantID, provider(r)); err != nil {
		h.fail(w, r, scope, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func provider(r *http.Request) domain.Provider {
	return domain.Provider(chi.URLParam(r, "provider"))
}

func (h *IntegrationHandler) fail(w http.ResponseWriter, r *http.Request, scope gateway.Scope, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownProvider), errors.Is(err, service.ErrCredentialNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTokenRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrVaultUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		// Decryption failures land here; the detail stays in the log.
		middleware.LoggerFromContext(r.Context(), h.logger).Error("integration request failed",
			zap.String("tenant_id", scope.TenantID.String()),
			zap.String("provider", chi.URLParam(r, "provider")),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
