package sandbox

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/utils"
)

func requestLogger(service string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			utils.Log.Debugf("[%s] %s %s (%s) request-id=%s", service, r.Method, r.URL.Path,
				time.Since(start), r.Header.Get(shared.RequestIDHeader))
		})
	}
}

// tokenAuth rejects requests whose API token header does not match token.
// An empty token disables the check.
func tokenAuth(header, token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(header)), []byte(token)) != 1 {
				shared.SendErrorResponse(w, "invalid API token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
