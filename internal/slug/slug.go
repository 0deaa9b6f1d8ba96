// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation and the underscore
// normalization used for catalog hierarchy paths and public identifiers.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// nonPathChars matches anything that isn't a letter, digit, space, or underscore.
	nonPathChars = regexp.MustCompile(`[^a-z0-9\s_]`)
	// multipleUnderscores collapses consecutive underscores into one.
	multipleUnderscores = regexp.MustCompile(`_{2,}`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Underscore normalizes a single name into the lowercase/underscored form
// used inside storage keys and hierarchy paths.
// Example: "Red Chair" → "red_chair"
func Underscore(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonPathChars.ReplaceAllString(result, "")
	result = strings.Join(strings.Fields(result), "_")
	result = multipleUnderscores.ReplaceAllString(result, "_")
	result = strings.Trim(result, "_")
	return result
}

// Path joins category names into a canonical hierarchy path: each segment
// lowercased and underscored, segments joined by "/".
// Example: ["Furniture", "Dining Chairs"] → "furniture/dining_chairs"
func Path(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if p := Underscore(seg); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// PublicIDBase derives the base public identifier for a catalog entry from
// its hierarchy path and name: the path's segments joined by "-" instead of
// "/", followed by the underscored name.
// Example: ("furniture/chairs", "Red Chair") → "furniture-chairs-red_chair"
func PublicIDBase(hierarchyPath, name string) string {
	var parts []string
	for _, seg := range strings.Split(hierarchyPath, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	if n := Underscore(name); n != "" {
		parts = append(parts, n)
	}
	return strings.Join(parts, "-")
}
