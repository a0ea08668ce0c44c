package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

// WindowGate is the persistent fixed-window counter backing IPFrequencyLimit.
type WindowGate interface {
	Allow(ctx context.Context, scope, identity string, windowSeconds, limit int) (bool, time.Duration, error)
	Refund(ctx context.Context, scope, identity string, windowSeconds int) error
}

// statusRecorder captures the status code so a failed request can be refunded.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	return sr.ResponseWriter.Write(b)
}

// IPFrequencyLimit enforces a per-IP fixed-window frequency cap on the scope.
// The window survives restarts and is shared across instances because the
// counter lives in the gate's store, not in process memory.
//
// When force is false a request that ends in an error response (status >= 400)
// is refunded, so callers only burn quota on attempts that succeed. When force
// is true every request counts, which is what a lockout-style gate wants.
// Store failures fail open: a broken counter must not take the endpoint down.
func IPFrequencyLimit(gate WindowGate, scope string, windowSeconds, limit int, force bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := RealIP(r)
			allowed, retryAfter, err := gate.Allow(r.Context(), scope, identity, windowSeconds, limit)
			if err != nil {
				slog.Warn("frequency gate unavailable, allowing request", "scope", scope, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))
				writeJSONError(w, http.StatusTooManyRequests, "too many requests, please retry later")
				return
			}
			if force {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status >= http.StatusBadRequest {
				if err := gate.Refund(r.Context(), scope, identity, windowSeconds); err != nil {
					slog.Warn("frequency gate refund failed", "scope", scope, "err", err)
				}
			}
		})
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
