package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/Harshitk-cp/tenantgate/internal/api/middleware"
	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	"github.com/Harshitk-cp/tenantgate/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc       *service.AuthService
	sessions  *session.Manager
	dashboard string
	logger    *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, sessions *session.Manager, dashboard string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, sessions: sessions, dashboard: dashboard, logger: logger}
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callback_url"`
}

type sessionResponse struct {
	Session  *session.Session `json:"session"`
	Redirect string           `json:"redirect,omitempty"`
}

// Login authenticates against the workspace named by the Host header. On the
// main or admin host the user's default workspace is chosen.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if d, ok := gateway.DenialFromContext(r.Context()); ok && d.Status == http.StatusNotFound {
		writeError(w, d.Status, d.Message)
		return
	}

	var subdomain string
	if route := gateway.Classify(r.Host); route.Kind == gateway.RouteTenant {
		subdomain = route.Subdomain
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password, subdomain)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrNoMemberships), errors.Is(err, service.ErrTenantAccessDenied):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			middleware.LoggerFromContext(r.Context(), h.logger).Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to log in")
		}
		return
	}

	if !h.issue(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Redirect: safeCallback(req.CallbackURL, h.dashboard)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type switchRequest struct {
	TenantID string `json:"tenant_id"`
}

// Switch rebinds the caller's session to another workspace they belong to.
// The caller may be on any subdomain, including one the current session is
// not bound to.
func (h *AuthHandler) Switch(w http.ResponseWriter, r *http.Request) {
	current, err := h.sessions.Resolve(r)
	if err != nil || current == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req switchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant_id")
		return
	}

	sess, err := h.svc.SwitchTenant(r.Context(), current.UserID, tenantID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTenantAccessDenied):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			h.sessions.ClearCookie(w)
			writeError(w, http.StatusUnauthorized, "authentication required")
		default:
			middleware.LoggerFromContext(r.Context(), h.logger).Error("tenant switch failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to switch workspace")
		}
		return
	}

	if !h.issue(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

// Me returns the caller's session. It answers on any host so a client on the
// wrong subdomain can discover where it belongs.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Resolve(r)
	if err != nil || sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	token, err := h.sessions.Issue(sess)
	if err != nil {
		middleware.LoggerFromContext(r.Context(), h.logger).Error("failed to sign session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue session")
		return false
	}
	h.sessions.SetCookie(w, token, sess.ExpiresAt)
	return true
}

// safeCallback accepts only same-origin relative paths. Control characters
// are rejected outright because browsers drop tabs and newlines while
// parsing, which can turn "/\t/host" into "//host".
func safeCallback(callback, fallback string) string {
	if callback == "" || !strings.HasPrefix(callback, "/") || strings.HasPrefix(callback, "//") {
		return fallback
	}
	if strings.IndexFunc(callback, func(r rune) bool { return r < 0x20 || r == 0x7f || r == '\\' }) >= 0 {
		return fallback
	}
	u, err := url.Parse(callback)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	return callback
}
