// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Petarainsoft/myroom-catalog/internal/models"
	"github.com/Petarainsoft/myroom-catalog/internal/slug"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

// categoryStore is the subset of the category store the resolver drives.
type categoryStore interface {
	FindByNameAndParent(name string, parentID *uuid.UUID) (*models.Category, error)
	Create(c *models.Category) (*models.Category, error)
}

// HierarchyResolver finds or creates the chain of categories named by a
// list of path segments. Categories are created lazily and never deleted,
// so resolution is naturally idempotent.
type HierarchyResolver struct {
	categories categoryStore
}

// NewHierarchyResolver returns a resolver over the given category store.
func NewHierarchyResolver(categories *store.CategoryStore) *HierarchyResolver {
	return &HierarchyResolver{categories: categories}
}

// Resolve walks the segments root-first, creating missing levels, and
// returns the deepest category. Blank segments are dropped; an empty list
// after filtering fails with ErrInvalidInput. Concurrent resolution of a
// shared prefix is safe: a lost create race is detected via the sibling
// uniqueness constraint and converted into a re-read of the winner's row.
func (r *HierarchyResolver) Resolve(segments []string) (*models.Category, error) {
	clean := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no category segments", ErrInvalidInput)
	}

	var node *models.Category
	for depth, name := range clean {
		var parentID *uuid.UUID
		if node != nil {
			parentID = &node.ID
		}
		resolved, err := r.findOrCreate(name, parentID, depth+1, slug.Path(clean[:depth+1]))
		if err != nil {
			return nil, err
		}
		node = resolved
	}
	return node, nil
}

// findOrCreate resolves one level. The lookup-then-insert pair is not
// atomic; the insert's unique violation is the race signal.
func (r *HierarchyResolver) findOrCreate(name string, parentID *uuid.UUID, level int, path string) (*models.Category, error) {
	existing, err := r.categories.FindByNameAndParent(name, parentID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup category %q: %w", ErrStorageUnavailable, name, err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := r.categories.Create(&models.Category{
		Name:     name,
		ParentID: parentID,
		Path:     path,
		Level:    level,
	})
	if err == nil {
		return created, nil
	}

	if store.IsUniqueViolation(err) {
		// Someone else created this node first. Reuse theirs.
		winner, lookupErr := r.categories.FindByNameAndParent(name, parentID)
		if lookupErr != nil {
			return nil, fmt.Errorf("%w: re-read category %q: %w", ErrStorageUnavailable, name, lookupErr)
		}
		if winner != nil {
			return winner, nil
		}
	}
	return nil, fmt.Errorf("%w: create category %q: %w", ErrStorageUnavailable, name, err)
}
