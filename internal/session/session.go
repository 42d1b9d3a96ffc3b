// Package session issues and verifies the signed token that carries a user's
// identity and tenant binding between requests.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultCookieName = "tg_session"
	DefaultTTL        = 7 * 24 * time.Hour
	issuer            = "tenantgate"
)

var (
	ErrMissingSecret = errors.New("session secret is not set")
	ErrInvalidToken  = errors.New("invalid session token")
	ErrNotMember     = errors.New("user is not a member of the tenant")
)

// TenantRef identifies the tenant a session is bound to.
type TenantRef struct {
	ID        uuid.UUID `json:"id"`
	Subdomain string    `json:"subdomain"`
	Name      string    `json:"name"`
}

// Member is one entry of the user's membership list.
type Member struct {
	TenantID  uuid.UUID   `json:"tenant_id"`
	Subdomain string      `json:"subdomain"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
}

// Session is the decoded identity. Tenant and Role describe the binding the
// user chose; Memberships lists every tenant they belong to.
type Session struct {
	UserID      uuid.UUID   `json:"user_id"`
	Email       string      `json:"email"`
	Tenant      TenantRef   `json:"tenant"`
	Role        domain.Role `json:"role"`
	Memberships []Member    `json:"memberships"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// New builds a session bound to tenantID. The tenant must appear in
// memberships.
func New(user *domain.User, memberships []domain.Membership, tenantID uuid.UUID) (*Session, error) {
	s := &Session{
		UserID:      user.ID,
		Email:       user.Email,
		Memberships: make([]Member, 0, len(memberships)),
	}
	bound := false
	for _, m := range memberships {
		s.Memberships = append(s.Memberships, Member{
			TenantID:  m.TenantID,
			Subdomain: m.TenantSubdomain,
			Name:      m.TenantName,
			Role:      m.Role,
		})
		if m.TenantID == tenantID {
			s.Tenant = TenantRef{ID: m.TenantID, Subdomain: m.TenantSubdomain, Name: m.TenantName}
			s.Role = m.Role
			bound = true
		}
	}
	if !bound {
		return nil, ErrNotMember
	}
	return s, nil
}

type Claims struct {
	jwt.RegisteredClaims
	Email           string      `json:"email"`
	TenantID        string      `json:"tid"`
	TenantSubdomain string      `json:"tsub"`
	TenantName      string      `json:"tname"`
	Role            domain.Role `json:"role"`
	Memberships     []Member    `json:"mem"`
}

type Config struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieDomain string
	Secure       bool
}

// Manager signs, verifies and transports sessions.
type Manager struct {
	secret       []byte
	ttl          time.Duration
	cookieName   string
	cookieDomain string
	secure       bool
	now          func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Manager{
		secret:       []byte(cfg.Secret),
		ttl:          cfg.TTL,
		cookieName:   cfg.CookieName,
		cookieDomain: cfg.CookieDomain,
		secure:       cfg.Secure,
		now:          time.Now,
	}, nil
}

// Issue signs s and sets its expiry.
func (m *Manager) Issue(s *Session) (string, error) {
	now := m.now()
	s.ExpiresAt = now.Add(m.ttl).Truncate(time.Second)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
		Email:           s.Email,
		TenantID:        s.Tenant.ID.String(),
		TenantSubdomain: s.Tenant.Subdomain,
		TenantName:      s.Tenant.Name,
		Role:            s.Role,
		Memberships:     s.Memberships,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies signature and expiry and decodes the session.
func (m *Manager) Parse(tokenString string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject: %v", ErrInvalidToken, err)
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil || claims.TenantSubdomain == "" {
		return nil, fmt.Errorf("%w: tenant binding", ErrInvalidToken)
	}

	return &Session{
		UserID: userID,
		Email:  claims.Email,
		Tenant: TenantRef{
			ID:        tenantID,
			Subdomain: claims.TenantSubdomain,
			Name:      claims.TenantName,
		},
		Role:        claims.Role,
		Memberships: claims.Memberships,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Token extracts the raw token from the session cookie or a bearer header.
func (m *Manager) Token(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Resolve returns the request's session, or nil when there is none. A token
// that fails verification is reported as ErrInvalidToken alongside a nil
// session; callers treat both as absent.
func (m *Manager) Resolve(r *http.Request) (*Session, error) {
	token := m.Token(r)
	if token == "" {
		return nil, nil
	}
	return m.Parse(token)
}

func (m *Manager) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Domain:   m.cookieDomain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
