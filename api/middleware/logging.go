package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

const ctxTrace contextKey = "trace"

// requestTrace is filled in by inner middleware so the access log written on
// the way out knows who made the request.
type requestTrace struct {
	user *models.User
}

func traceUser(ctx context.Context, user *models.User) {
	if t, ok := ctx.Value(ctxTrace).(*requestTrace); ok {
		t.user = user
	}
}

// Logging writes one access log line per request once it completes.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			trace := &requestTrace{}
			ctx := context.WithValue(r.Context(), ctxTrace, trace)
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(ctx))

			fields := map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.statusCode(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   clientIP(r),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				fields["route"] = rctx.RoutePattern()
			}
			if trace.user != nil {
				fields["user_id"] = trace.user.ID
				fields["actor_role"] = string(trace.user.Role)
			}
			logCtx := logg.WithFields(ctx, fields)
			switch status := rec.statusCode(); {
			case status >= http.StatusInternalServerError:
				logg.Warn(logCtx, "request failed")
			default:
				logg.Info(logCtx, "request complete")
			}
		})
	}
}
