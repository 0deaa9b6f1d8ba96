// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package access decides who may retrieve which catalog entry. Both
// taxonomies share one decision procedure: a target is normalized behind
// the Target union before the policy branches run, so everything
// downstream of the lookup is taxonomy-agnostic.
package access

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Petarainsoft/myroom-catalog/internal/cache"
	"github.com/Petarainsoft/myroom-catalog/internal/catalog"
	"github.com/Petarainsoft/myroom-catalog/internal/models"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

// Decision reasons, in the order the resolver checks them.
const (
	ReasonPublic       = "public"
	ReasonProjectOwned = "project-owned"
	ReasonFree         = "free"
	ReasonPermission   = "permission"
	ReasonDenied       = "denied"
)

// Decision is the outcome of one access resolution. Denial is a normal
// decision, never an error.
type Decision struct {
	HasAccess bool   `json:"has_access"`
	Reason    string `json:"reason"`
}

// Target wraps an entry from either taxonomy. Exactly one field is set.
type Target struct {
	Item       *models.Item
	AvatarPart *models.AvatarPart
}

// Active reports whether the entry participates in resolution at all.
func (t *Target) Active() bool {
	if t.Item != nil {
		return t.Item.IsActive()
	}
	return t.AvatarPart.IsActive()
}

// EntryID returns the entry's internal identifier.
func (t *Target) EntryID() uuid.UUID {
	if t.Item != nil {
		return t.Item.ID
	}
	return t.AvatarPart.ID
}

// PublicID returns the entry's public identifier.
func (t *Target) PublicID() string {
	if t.Item != nil {
		return t.Item.PublicID
	}
	return t.AvatarPart.PublicID
}

// Name returns the entry's display name.
func (t *Target) Name() string {
	if t.Item != nil {
		return t.Item.Name
	}
	return t.AvatarPart.Name
}

// S3Key returns the entry's object storage key.
func (t *Target) S3Key() string {
	if t.Item != nil {
		return t.Item.S3Key
	}
	return t.AvatarPart.S3Key
}

// ContentType returns the stored object's content type.
func (t *Target) ContentType() string {
	if t.Item != nil {
		return t.Item.ContentType
	}
	return t.AvatarPart.ContentType
}

// Policy returns the entry's access policy.
func (t *Target) Policy() models.AccessPolicy {
	if t.Item != nil {
		return t.Item.AccessPolicy
	}
	return t.AvatarPart.AccessPolicy
}

// OwnerProjectID returns the owning project for project-only entries.
func (t *Target) OwnerProjectID() *uuid.UUID {
	if t.Item != nil {
		return t.Item.OwnerProjectID
	}
	return t.AvatarPart.OwnerProjectID
}

// FreeForDevelopers folds the taxonomy-specific premium semantics into
// one "accessible without a grant" bool. Items are free unless premium;
// avatar parts additionally honor the free flag, which overrides premium.
func (t *Target) FreeForDevelopers() bool {
	if t.Item != nil {
		return t.Item.FreeForDevelopers()
	}
	return t.AvatarPart.FreeForDevelopers()
}

// itemSource is the item lookup surface the resolver reads.
type itemSource interface {
	FindByPublicID(publicID string) (*models.Item, error)
	ListAccessible(developerID uuid.UUID, projectID *uuid.UUID, f store.ListFilter) ([]models.Item, int, error)
}

// partSource is the avatar part lookup surface the resolver reads.
type partSource interface {
	FindByPublicID(publicID string) (*models.AvatarPart, error)
	ListAccessible(developerID uuid.UUID, projectID *uuid.UUID, f store.ListFilter) ([]models.AvatarPart, int, error)
}

// grantSource answers active grant lookups per taxonomy.
type grantSource interface {
	FindActiveForItem(developerID, itemID uuid.UUID) (*models.PermissionGrant, error)
	FindActiveForAvatarPart(developerID, avatarPartID uuid.UUID) (*models.PermissionGrant, error)
}

// decisionCache is the optional Valkey decision cache.
type decisionCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
}

// Resolver answers access decisions over both taxonomies. It is
// read-only; concurrent decisions need no coordination.
type Resolver struct {
	items     itemSource
	parts     partSource
	grants    grantSource
	decisions decisionCache
}

// NewResolver wires the resolver over the catalog stores. The decision
// cache may be nil; decisions are then computed on every call.
func NewResolver(items *store.ItemStore, parts *store.AvatarPartStore, grants *store.GrantStore, decisions *cache.DecisionCache) *Resolver {
	r := &Resolver{items: items, parts: parts, grants: grants}
	if decisions != nil {
		r.decisions = decisions
	}
	return r
}

// Decide resolves whether developerID may retrieve the entry named by
// publicID, optionally in the context of a project the caller has already
// been verified to own. A nonexistent or archived entry denies; policy
// precedence is public, then project ownership (with no grant fallback),
// then free, then an active grant.
func (r *Resolver) Decide(ctx context.Context, developerID uuid.UUID, publicID string, projectID *uuid.UUID) (Decision, error) {
	key := cache.DecisionKey(publicID, developerID, projectID)
	if r.decisions != nil {
		if payload, ok := r.decisions.Get(ctx, key); ok {
			var d Decision
			if err := json.Unmarshal(payload, &d); err == nil {
				return d, nil
			}
		}
	}

	target, err := r.find(publicID)
	if err != nil {
		return Decision{}, err
	}

	// Unknown entries are not cached: a denied verdict must not outlive
	// the entry's later ingestion, and nothing would invalidate it.
	if target == nil {
		return Decision{HasAccess: false, Reason: ReasonDenied}, nil
	}

	d := Decision{HasAccess: false, Reason: ReasonDenied}
	var grant *models.PermissionGrant
	if target.Active() {
		d, grant, err = r.evaluate(target, developerID, projectID)
		if err != nil {
			return Decision{}, err
		}
	}

	if r.decisions != nil {
		ttl, cacheable := time.Duration(0), true
		if grant != nil && grant.ExpiresAt != nil {
			// Cap the cache lifetime at the grant's remaining validity so
			// an expiring grant never yields access past its expiry.
			ttl = time.Until(*grant.ExpiresAt)
			cacheable = ttl > 0
		}
		if cacheable {
			if payload, err := json.Marshal(d); err == nil {
				r.decisions.Set(ctx, key, payload, ttl)
			}
		}
	}
	return d, nil
}

// evaluate runs the policy branches over an active target. The returned
// grant is non-nil only when the decision rests on one.
func (r *Resolver) evaluate(target *Target, developerID uuid.UUID, projectID *uuid.UUID) (Decision, *models.PermissionGrant, error) {
	switch target.Policy() {
	case models.AccessPublic:
		return Decision{HasAccess: true, Reason: ReasonPublic}, nil, nil

	case models.AccessProjectOnly:
		owner := target.OwnerProjectID()
		if projectID != nil && owner != nil && *projectID == *owner {
			return Decision{HasAccess: true, Reason: ReasonProjectOwned}, nil, nil
		}
		// Project-only entries never fall through to the free or grant
		// branches.
		return Decision{HasAccess: false, Reason: ReasonDenied}, nil, nil
	}

	if !r.inDeveloperScope(developerID, target) {
		return Decision{HasAccess: false, Reason: ReasonDenied}, nil, nil
	}
	if target.FreeForDevelopers() {
		return Decision{HasAccess: true, Reason: ReasonFree}, nil, nil
	}

	grant, err := r.activeGrant(developerID, target)
	if err != nil {
		return Decision{}, nil, err
	}
	if grant != nil {
		return Decision{HasAccess: true, Reason: ReasonPermission}, grant, nil
	}
	return Decision{HasAccess: false, Reason: ReasonDenied}, nil, nil
}

// inDeveloperScope gates the developers-only policy. Category-scoped
// permissions were retired in favor of every registered developer being
// in scope, so the check currently always passes; the branch stays so a
// scoped variant can return without reordering the decision procedure.
func (r *Resolver) inDeveloperScope(_ uuid.UUID, _ *Target) bool {
	return true
}

// Lookup finds an active entry across both taxonomies, items first.
// Missing and archived entries fail with catalog.ErrNotFound.
func (r *Resolver) Lookup(publicID string) (*Target, error) {
	target, err := r.find(publicID)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.Active() {
		return nil, fmt.Errorf("%w: entry %q", catalog.ErrNotFound, publicID)
	}
	return target, nil
}

// find looks the public identifier up in both taxonomies. Returns nil
// when neither has it; archived entries are returned as-is.
func (r *Resolver) find(publicID string) (*Target, error) {
	item, err := r.items.FindByPublicID(publicID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup item %q: %w", catalog.ErrStorageUnavailable, publicID, err)
	}
	if item != nil {
		return &Target{Item: item}, nil
	}

	part, err := r.parts.FindByPublicID(publicID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup avatar part %q: %w", catalog.ErrStorageUnavailable, publicID, err)
	}
	if part != nil {
		return &Target{AvatarPart: part}, nil
	}
	return nil, nil
}

// activeGrant fetches the non-expired grant for the target, if any.
func (r *Resolver) activeGrant(developerID uuid.UUID, target *Target) (*models.PermissionGrant, error) {
	var (
		grant *models.PermissionGrant
		err   error
	)
	if target.Item != nil {
		grant, err = r.grants.FindActiveForItem(developerID, target.Item.ID)
	} else {
		grant, err = r.grants.FindActiveForAvatarPart(developerID, target.AvatarPart.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup grant for %q: %w", catalog.ErrStorageUnavailable, target.PublicID(), err)
	}
	return grant, nil
}

// ListAccessibleItems pages through the items developerID may retrieve.
// The policy runs as a single SQL predicate, not per row.
func (r *Resolver) ListAccessibleItems(developerID uuid.UUID, projectID *uuid.UUID, f store.ListFilter) ([]models.Item, int, error) {
	items, total, err := r.items.ListAccessible(developerID, projectID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list items: %w", catalog.ErrStorageUnavailable, err)
	}
	return items, total, nil
}

// ListAccessibleAvatarParts pages through the avatar parts developerID
// may retrieve.
func (r *Resolver) ListAccessibleAvatarParts(developerID uuid.UUID, projectID *uuid.UUID, f store.ListFilter) ([]models.AvatarPart, int, error) {
	parts, total, err := r.parts.ListAccessible(developerID, projectID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list avatar parts: %w", catalog.ErrStorageUnavailable, err)
	}
	return parts, total, nil
}
