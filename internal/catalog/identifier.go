// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Petarainsoft/myroom-catalog/internal/slug"
)

// maxProbes bounds identifier probing. The probe only picks a candidate;
// the insert's unique constraint is the real guarantee, so a small budget
// suffices and an adversarial pile-up fails fast instead of scanning the
// whole catalog.
const maxProbes = 50

// prober is the existence-check subset of an entry store. Allocation is
// scoped per taxonomy because public identifiers and slugs are unique per
// taxonomy, not globally.
type prober interface {
	PublicIDExists(publicID string) (bool, error)
	SlugExists(slug string, excludeID *uuid.UUID) (bool, error)
}

// Allocator derives collision-free public identifiers and slugs for one
// taxonomy.
type Allocator struct {
	entries prober
}

// NewAllocator returns an allocator probing the given taxonomy store.
func NewAllocator(entries prober) *Allocator {
	return &Allocator{entries: entries}
}

// AllocatePublicID returns a free public identifier for an entry: the
// hierarchy path's segments joined by "-", then the underscored name, with
// deterministic numeric suffixes (base, base_1, base_2, ...) on collision.
// A name that normalizes to nothing fails with ErrInvalidInput.
func (a *Allocator) AllocatePublicID(hierarchyPath, name string) (string, error) {
	if slug.Underscore(name) == "" {
		return "", fmt.Errorf("%w: name %q normalizes to nothing", ErrInvalidInput, name)
	}
	base := slug.PublicIDBase(hierarchyPath, name)

	for n := 0; n <= maxProbes; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		exists, err := a.entries.PublicIDExists(candidate)
		if err != nil {
			return "", fmt.Errorf("%w: probe public id %q: %w", ErrStorageUnavailable, candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free public id for %q within %d probes", ErrConflict, base, maxProbes)
}

// AllocateSlug returns a free hyphenated slug for an entry, probing numeric
// suffixes (base, base-1, base-2, ...) on collision. A non-nil excludeID
// ignores that row, so renaming an entry to its own slug is a no-op rather
// than a collision.
func (a *Allocator) AllocateSlug(name string, excludeID *uuid.UUID) (string, error) {
	base := slug.Generate(name)
	if base == "" {
		return "", fmt.Errorf("%w: name %q normalizes to nothing", ErrInvalidInput, name)
	}

	for n := 0; n <= maxProbes; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		exists, err := a.entries.SlugExists(candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("%w: probe slug %q: %w", ErrStorageUnavailable, candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free slug for %q within %d probes", ErrConflict, base, maxProbes)
}
