package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
)

// APIKeyHeader carries the shared secret for /api routes
const APIKeyHeader = "X-API-Key"

// APIKey rejects requests whose X-API-Key header does not match key.
// An empty key disables the check. Websocket clients that cannot set
// headers may pass the key as the api_key query parameter.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				provided = r.URL.Query().Get("api_key")
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				log.Printf("[Auth] Rejected %s %s: invalid or missing API key", r.Method, r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error": "unauthorized - invalid or missing X-API-Key header"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
