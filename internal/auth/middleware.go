package auth

import (
	"net/http"
)

// APIKeyMiddleware returns HTTP middleware that enforces a static API key on
// every request.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all requests pass through.
//   - Otherwise the value of header is compared to key; a missing, empty, or
//     incorrect key gets 401 with a JSON error body.
//
// This guards the collaborator surface (forms, dashboards calling the REST
// API); it is service-level auth, not end-user login.
func APIKeyMiddleware(mode, header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Non-apikey modes or unconfigured key → allow everything.
			if mode != "apikey" || key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get(header) != key {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
