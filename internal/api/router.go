package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/api/handlers"
	mw "github.com/Harshitk-cp/tenantgate/internal/api/middleware"
	"github.com/Harshitk-cp/tenantgate/internal/buildconfig"
	"github.com/Harshitk-cp/tenantgate/internal/cache"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	"github.com/Harshitk-cp/tenantgate/internal/session"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/Harshitk-cp/tenantgate/internal/vault"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Options carries the dependencies cmd/server builds before the router.
// Cache and Vault are optional.
type Options struct {
	DB        *pgxpool.Pool
	Cache     *cache.RedisTenantCache
	CacheTTL  time.Duration
	Vault     *vault.Vault
	Sessions  *session.Manager
	Paths     gateway.Paths
	Operators []string
}

// App holds the router main serves.
type App struct {
	Router *chi.Mux
}

func NewApp(opts Options, logger *zap.Logger) *App {
	// Stores
	tenantStore := store.NewTenantStore(opts.DB)
	userStore := store.NewUserStore(opts.DB)
	credentialStore := store.NewCredentialStore(opts.DB)

	// Directory, cached when Redis is configured
	var directory gateway.TenantDirectory = tenantStore
	var invalidator service.TenantInvalidator
	if opts.Cache != nil {
		dir := cache.NewDirectory(tenantStore, opts.Cache, opts.CacheTTL, logger)
		directory = dir
		invalidator = dir
	}

	// An absent vault must reach the service as a nil interface.
	var cipher service.Cipher
	if opts.Vault != nil {
		cipher = opts.Vault
	}

	// Services
	authSvc := service.NewAuthService(userStore, logger)
	tenantSvc := service.NewTenantService(tenantStore, invalidator, logger)
	credentialSvc := service.NewCredentialService(credentialStore, cipher)

	// Zero-valued paths are defaulted by the enforcer; routes use the result.
	enforcer := gateway.NewEnforcer(directory, opts.Sessions, opts.Paths, logger)
	paths := enforcer.Paths()

	// Handlers
	authHandler := handlers.NewAuthHandler(authSvc, opts.Sessions, paths.Dashboard, logger)
	integrationHandler := handlers.NewIntegrationHandler(credentialSvc, logger)
	tenantHandler := handlers.NewTenantHandler(tenantSvc, opts.Operators, logger)
	pages := handlers.Pages{}

	metricsCollector := mw.NewMetricsCollector()

	r := chi.NewRouter()

	app := &App{Router: r}

	// Global middleware (order matters)
	r.Use(mw.RequestID(logger))        // Generate/extract request ID first
	r.Use(middleware.RealIP)           // Extract real IP
	r.Use(metricsCollector.Middleware) // Collect metrics
	r.Use(mw.Logging(logger))          // Log all requests
	r.Use(middleware.Recoverer)        // Recover from panics
	r.Use(mw.Gateway(enforcer, metricsCollector, logger, "/health", "/metrics"))

	// Health and metrics, exempt from the gateway
	r.Get("/health", healthHandler(opts.DB, opts.Cache))
	r.Method(http.MethodGet, "/metrics", metricsCollector.Handler())

	// Browser routes
	r.Get("/", pages.Home)
	r.Get(paths.Login, pages.Login)
	r.Get(paths.Dashboard, pages.Dashboard)
	r.Get(paths.Dashboard+"/*", pages.Dashboard)

	r.Route("/api", func(r chi.Router) {
		// Session endpoints resolve the caller themselves and answer on any host.
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/switch", authHandler.Switch)
		r.Get("/me", authHandler.Me)

		// Workspace-scoped
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireTenant)
			r.Route("/integrations/{provider}", func(r chi.Router) {
				r.Get("/", integrationHandler.Get)
				r.Put("/", integrationHandler.Put)
				r.Delete("/", integrationHandler.Delete)
			})
		})

		// Platform administration on the admin host
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireAdmin)
			r.Get("/tenants/{id}", tenantHandler.GetByID)
			r.Put("/tenants/{id}/status", tenantHandler.SetStatus)
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool, rc *cache.RedisTenantCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := map[string]any{"status": "ok", "build": buildconfig.VersionInfo()}
		status := http.StatusOK

		if err := db.Ping(ctx); err != nil {
			resp["status"] = "error"
			resp["error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if rc != nil {
			if err := rc.Ping(ctx); err != nil {
				// The directory falls back to Postgres, so a cache outage degrades
				// rather than fails the service.
				resp["cache"] = "unavailable"
			} else {
				resp["cache"] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ensure stores and caches satisfy interfaces at compile time.
var (
	_ domain.TenantStore        = (*store.TenantStore)(nil)
	_ domain.UserStore          = (*store.UserStore)(nil)
	_ domain.CredentialStore    = (*store.CredentialStore)(nil)
	_ domain.TenantCache        = (*cache.RedisTenantCache)(nil)
	_ gateway.TenantDirectory   = (*cache.Directory)(nil)
	_ gateway.SessionResolver   = (*session.Manager)(nil)
	_ service.TenantInvalidator = (*cache.Directory)(nil)
	_ service.Cipher            = (*vault.Vault)(nil)
)
