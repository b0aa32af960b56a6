package handlers

import (
	"net/http"
	"strings"
	"sync"
)

// APIKeyAuth guards write endpoints with a static key set. Keys arrive
// either in the configured header or as an Authorization bearer token.
type APIKeyAuth struct {
	headerName string
	validKeys  map[string]bool
	mu         sync.RWMutex
}

// NewAPIKeyAuth creates an authenticator; empty keys are skipped.
func NewAPIKeyAuth(headerName string, keys []string) *APIKeyAuth {
	validKeys := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			validKeys[key] = true
		}
	}
	return &APIKeyAuth{headerName: headerName, validKeys: validKeys}
}

// IsValid reports whether the key is accepted.
func (a *APIKeyAuth) IsValid(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.validKeys[key]
}

// Middleware rejects requests without a valid key.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(a.headerName)
		if key == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if key == "" {
			http.Error(w, `{"error":"missing_api_key","message":"API key is required"}`, http.StatusUnauthorized)
			return
		}
		if !a.IsValid(key) {
			http.Error(w, `{"error":"invalid_api_key","message":"Invalid API key"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersMiddleware sets the standard hardening headers for a
// JSON API.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// RequestSizeLimitMiddleware caps request body size, rejecting oversized
// declared lengths up front and bounding the actual read.
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, `{"error":"payload_too_large","message":"Request body too large"}`,
					http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
