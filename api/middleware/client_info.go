package middleware

import (
	"net/http"

	"github.com/waretrack/waretrack-backend/internal/audit"
)

// ClientInfo stamps the caller's IP address and user agent onto the request
// context so audit writes further down the stack can attribute the entry.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequestInfo(r.Context(), audit.RequestInfo{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
