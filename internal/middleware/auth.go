// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Petarainsoft/myroom-catalog/internal/models"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// DeveloperKey is the context key for the authenticated developer.
	DeveloperKey contextKey = "developer"
)

// apiKeyScheme tags every catalog API key: mrk_<prefix>_<secret>.
const apiKeyScheme = "mrk"

// ServiceTokenHeader carries the administrative collaborator's token.
const ServiceTokenHeader = "X-Service-Token"

// Authenticate resolves the caller's API key to a developer and stores it
// in the request context. The key travels in X-API-Key or as a bearer
// token. This middleware does NOT enforce authentication: an absent or
// invalid key just leaves the context empty, and RequireDeveloper enforces.
func Authenticate(developers *store.DeveloperStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := apiKeyFromRequest(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			dev := resolveAPIKey(developers, key)
			if dev != nil {
				ctx := context.WithValue(r.Context(), DeveloperKey, dev)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireDeveloper rejects requests without an authenticated, active
// developer. Must be applied after Authenticate in the middleware chain.
func RequireDeveloper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dev := DeveloperFromCtx(r.Context())
		if dev == nil {
			unauthorized(w, "a valid API key is required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireServiceToken gates the administrative surface behind a shared
// service token, compared in constant time. An empty configured token
// closes the surface entirely.
func RequireServiceToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(ServiceTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				unauthorized(w, "a valid service token is required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DeveloperFromCtx extracts the authenticated developer from the request
// context. Returns nil if the caller did not present a valid key.
func DeveloperFromCtx(ctx context.Context) *models.Developer {
	dev, _ := ctx.Value(DeveloperKey).(*models.Developer)
	return dev
}

// apiKeyFromRequest pulls the API key out of X-API-Key, falling back to
// Authorization: Bearer.
func apiKeyFromRequest(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// keyPrefix extracts the prefix of a presented API key without verifying
// the secret. Empty when the request carries no well-formed key. Request
// logging and rate limiting attribute by prefix so they work before, and
// independently of, credential verification.
func keyPrefix(r *http.Request) string {
	parts := strings.SplitN(apiKeyFromRequest(r), "_", 3)
	if len(parts) == 3 && parts[0] == apiKeyScheme {
		return parts[1]
	}
	return ""
}

// resolveAPIKey splits mrk_<prefix>_<secret>, finds the developer by
// prefix, and verifies the secret against the stored bcrypt digest.
// Suspended accounts resolve to nil.
func resolveAPIKey(developers *store.DeveloperStore, key string) *models.Developer {
	parts := strings.SplitN(key, "_", 3)
	if len(parts) != 3 || parts[0] != apiKeyScheme {
		return nil
	}

	dev, err := developers.FindByAPIKeyPrefix(parts[1])
	if err != nil || dev == nil || !dev.IsActive() {
		return nil
	}
	if !developers.CheckAPIKey(dev, parts[2]) {
		return nil
	}
	return dev
}

// unauthorized writes a small JSON 401. Middleware cannot reach the
// handlers package's response helpers without an import cycle.
func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
