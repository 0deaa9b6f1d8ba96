// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// SecureHeaders adds the response headers appropriate for an authenticated
// JSON API.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		// Responses are JSON (or redirects to signed URLs); never let a
		// browser sniff them into something renderable.
		h.Set("X-Content-Type-Options", "nosniff")

		// The API serves nothing meant for framing.
		h.Set("X-Frame-Options", "DENY")

		// Decisions, listings, and presigned redirects are per-developer;
		// shared caches must not store them.
		h.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}
