package middleware

import (
	"net/http"
	"strings"

	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"go.uber.org/zap"
)

// identityHeaderPrefixes are dropped from inbound requests. Identity travels
// only in the request context.
var identityHeaderPrefixes = []string{"X-Tenant-", "X-User-"}

// Gateway applies the enforcer's decision to every request: redirect, reject
// or attach the resolved scope and continue. Requests for an exempt path skip
// the decision but still lose any identity headers.
//
// It must be installed with Use on the root router: the path rewrite only
// affects routing when it happens before chi matches a route.
func Gateway(enforcer *gateway.Enforcer, metrics *MetricsCollector, logger *zap.Logger, exempt ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			stripIdentityHeaders(r.Header)
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			d := enforcer.Decide(r)
			if metrics != nil {
				metrics.ObserveDecision(d)
			}

			fields := []zap.Field{
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("host", r.Host),
				zap.String("path", r.URL.Path),
				zap.String("route", d.Route.String()),
				zap.String("reason", d.Reason),
			}

			switch d.Outcome {
			case gateway.OutcomeRedirect:
				http.Redirect(w, r, d.Location, d.Outcome.Status())
				return
			case gateway.OutcomeForbidden:
				logger.Warn("gateway rejected request", fields...)
				writeError(w, http.StatusForbidden, d.Message)
				return
			case gateway.OutcomeNotFound:
				logger.Info("unknown workspace", fields...)
				writeError(w, http.StatusNotFound, d.Message)
				return
			case gateway.OutcomeError:
				logger.Error("gateway failed", append(fields, zap.Error(d.Err))...)
				writeError(w, http.StatusInternalServerError, d.Message)
				return
			}

			ctx := r.Context()
			if d.Scope != nil {
				ctx = gateway.WithScope(ctx, *d.Scope)
				annotate(ctx, d.Scope)
			}
			if d.Denial != nil {
				ctx = gateway.WithDenial(ctx, *d.Denial)
			}
			r = r.WithContext(ctx)
			if d.Path != "" {
				// WithContext shares the URL; the outer log and metrics keep the original.
				u := *r.URL
				u.Path = d.Path
				u.RawPath = ""
				r.URL = &u
			}
			next.ServeHTTP(w, r)
		})
	}
}

func stripIdentityHeaders(h http.Header) {
	for name := range h {
		for _, prefix := range identityHeaderPrefixes {
			if strings.HasPrefix(name, prefix) {
				h.Del(name)
				break
			}
		}
	}
}
