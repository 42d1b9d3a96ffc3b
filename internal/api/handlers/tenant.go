package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/tenantgate/internal/api/middleware"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantHandler serves tenant administration on the admin host. Only
// operators listed at construction may use it.
type TenantHandler struct {
	svc       *service.TenantService
	operators map[string]struct{}
	logger    *zap.Logger
}

func NewTenantHandler(svc *service.TenantService, operators []string, logger *zap.Logger) *TenantHandler {
	ops := make(map[string]struct{}, len(operators))
	for _, email := range operators {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			ops[email] = struct{}{}
		}
	}
	return &TenantHandler{svc: svc, operators: ops, logger: logger}
}

type tenantResponse struct {
	ID        string              `json:"id"`
	Subdomain string              `json:"subdomain"`
	Name      string              `json:"name"`
	Status    domain.TenantStatus `json:"status"`
}

type setStatusRequest struct {
	Status domain.TenantStatus `json:"status"`
}

func (h *TenantHandler) operator(w http.ResponseWriter, r *http.Request) bool {
	scope, ok := gateway.ScopeFromContext(r.Context())
	if !ok || !scope.Admin {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if _, ok := h.operators[strings.ToLower(scope.Email)]; !ok {
		writeError(w, http.StatusForbidden, "operator access required")
		return false
	}
	return true
}

func (h *TenantHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if !h.operator(w, r) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	t, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		middleware.LoggerFromContext(r.Context(), h.logger).Error("failed to get tenant", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get tenant")
		return
	}
	writeJSON(w, http.StatusOK, toTenantResponse(t))
}

// SetStatus suspends or reinstates a workspace. A failed cache eviction is
// reported with 202: the change is stored but may take until the cache entry
// expires to be enforced.
func (h *TenantHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.operator(w, r) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.svc.SetStatus(r.Context(), id, req.Status)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toTenantResponse(t))
	case errors.Is(err, service.ErrInvalidationFailed):
		writeJSON(w, http.StatusAccepted, toTenantResponse(t))
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTenantNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		middleware.LoggerFromContext(r.Context(), h.logger).Error("failed to set tenant status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update tenant")
	}
}

func toTenantResponse(t *domain.Tenant) tenantResponse {
	return tenantResponse{ID: t.ID.String(), Subdomain: t.Subdomain, Name: t.Name, Status: t.Status}
}
