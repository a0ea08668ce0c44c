package middleware

import (
	"net"
	"net/http"
	"strings"
)

// RealIP returns the caller's network address, preferring the first entry of
// X-Forwarded-For, then X-Real-Ip, then the connection's remote address.
// This is the identity every rate-limit scope keys on.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.Index(xff, ","); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xr := r.Header.Get("X-Real-Ip"); xr != "" {
		return xr
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
