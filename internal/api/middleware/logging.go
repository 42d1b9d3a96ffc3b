package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"go.uber.org/zap"
)

const identityKey = contextKey("identity")

// identity is filled in by the gateway so the access log, which wraps it,
// can report who the request was scoped to.
type identity struct {
	tenantID string
	userID   string
}

func annotate(ctx context.Context, s *gateway.Scope) {
	id, ok := ctx.Value(identityKey).(*identity)
	if !ok {
		return
	}
	if !s.Admin {
		id.tenantID = s.TenantID.String()
	}
	id.userID = s.UserID.String()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging returns middleware that logs each request with structured JSON output.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := &identity{}
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), identityKey, id)))

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("host", r.Host),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.statusCode),
				zap.Int64("bytes", rw.written),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("tenant_id", id.tenantID),
				zap.String("user_id", id.userID),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			)
		})
	}
}
