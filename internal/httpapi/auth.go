package httpapi

import (
	"net/http"
	"strings"
)

const missingAuthorizationBody = "Missing Authorization header"
const wrongAPIKeyBody = "Invalid or missing API key"

// bearerAuthMiddleware enforces Authorization: Bearer <apiKey> on every
// request it wraps. A missing header is 401; a malformed scheme or a
// mismatched token is 403. The scheme prefix is matched case-insensitively.
func bearerAuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return bearerAuth(apiKey, next)
	}
}

func bearerAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, missingAuthorizationBody, http.StatusUnauthorized)
			return
		}

		const prefix = "bearer "
		if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
			http.Error(w, wrongAPIKeyBody, http.StatusForbidden)
			return
		}

		token := header[len(prefix):]
		if token != apiKey {
			http.Error(w, wrongAPIKeyBody, http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
