// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Petarainsoft/myroom-catalog/internal/cache"
	"github.com/Petarainsoft/myroom-catalog/internal/catalog"
	"github.com/Petarainsoft/myroom-catalog/internal/models"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

// Admin groups the service-token-gated administrative handlers: grant
// management and catalog entry lifecycle.
type Admin struct {
	grants    *store.GrantStore
	items     *store.ItemStore
	parts     *store.AvatarPartStore
	itemAlloc *catalog.Allocator
	partAlloc *catalog.Allocator
	decisions *cache.DecisionCache
}

// NewAdmin creates the admin handler group. decisions may be nil when
// Valkey is not configured; invalidation is then a no-op.
func NewAdmin(grants *store.GrantStore, items *store.ItemStore, parts *store.AvatarPartStore, decisions *cache.DecisionCache) *Admin {
	return &Admin{
		grants:    grants,
		items:     items,
		parts:     parts,
		itemAlloc: catalog.NewAllocator(items),
		partAlloc: catalog.NewAllocator(parts),
		decisions: decisions,
	}
}

// grantRequest is the JSON body for grant upsert and revocation.
type grantRequest struct {
	DeveloperID uuid.UUID  `json:"developer_id"`
	PublicID    string     `json:"public_id"`
	IsPaid      bool       `json:"is_paid"`
	PaidAmount  *float64   `json:"paid_amount"`
	ExpiresAt   *time.Time `json:"expires_at"`
	GrantedBy   *uuid.UUID `json:"granted_by"`
	Reason      string     `json:"reason"`
}

// GrantUpsert creates or supersedes a permission grant for one developer
// on one catalog entry.
func (a *Admin) GrantUpsert(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}
	if req.DeveloperID == uuid.Nil || req.PublicID == "" {
		writeError(w, "developer_id and public_id are required.", http.StatusBadRequest)
		return
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		writeError(w, "expires_at must be in the future.", http.StatusBadRequest)
		return
	}

	grant, err := a.upsertGrant(&req)
	if err != nil {
		writeFailure(w, "grant upsert", err)
		return
	}

	a.invalidateGrant(r.Context(), req.PublicID, req.DeveloperID)
	writeJSON(w, http.StatusOK, grant)
}

// bulkGrantRequest is the JSON body for granting one developer access to
// many entries at once.
type bulkGrantRequest struct {
	DeveloperID uuid.UUID  `json:"developer_id"`
	PublicIDs   []string   `json:"public_ids"`
	IsPaid      bool       `json:"is_paid"`
	PaidAmount  *float64   `json:"paid_amount"`
	ExpiresAt   *time.Time `json:"expires_at"`
	GrantedBy   *uuid.UUID `json:"granted_by"`
	Reason      string     `json:"reason"`
}

// bulkGrantFailure reports one entry that could not be granted.
type bulkGrantFailure struct {
	PublicID string `json:"public_id"`
	Error    string `json:"error"`
}

// GrantBulk grants one developer access to a list of entries. Entries are
// processed independently; a failure does not roll back earlier grants.
func (a *Admin) GrantBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}
	if req.DeveloperID == uuid.Nil || len(req.PublicIDs) == 0 {
		writeError(w, "developer_id and public_ids are required.", http.StatusBadRequest)
		return
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		writeError(w, "expires_at must be in the future.", http.StatusBadRequest)
		return
	}

	granted := 0
	failures := []bulkGrantFailure{}
	for _, publicID := range req.PublicIDs {
		one := grantRequest{
			DeveloperID: req.DeveloperID,
			PublicID:    publicID,
			IsPaid:      req.IsPaid,
			PaidAmount:  req.PaidAmount,
			ExpiresAt:   req.ExpiresAt,
			GrantedBy:   req.GrantedBy,
			Reason:      req.Reason,
		}
		if _, err := a.upsertGrant(&one); err != nil {
			failures = append(failures, bulkGrantFailure{PublicID: publicID, Error: err.Error()})
			continue
		}
		a.invalidateGrant(r.Context(), publicID, req.DeveloperID)
		granted++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"granted":  granted,
		"failed":   len(failures),
		"failures": failures,
	})
}

// GrantRevoke expires a grant immediately. The row is kept for audit; a
// missing or already-expired grant reports not found.
func (a *Admin) GrantRevoke(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}
	if req.DeveloperID == uuid.Nil || req.PublicID == "" {
		writeError(w, "developer_id and public_id are required.", http.StatusBadRequest)
		return
	}

	item, part, err := a.findEntry(req.PublicID)
	if err != nil {
		writeFailure(w, "grant revoke", err)
		return
	}

	var revoked *models.PermissionGrant
	if item != nil {
		revoked, err = a.grants.RevokeForItem(req.DeveloperID, item.ID)
	} else {
		revoked, err = a.grants.RevokeForAvatarPart(req.DeveloperID, part.ID)
	}
	if err != nil {
		writeFailure(w, "grant revoke", fmt.Errorf("%w: revoke grant: %w", catalog.ErrStorageUnavailable, err))
		return
	}
	if revoked == nil {
		writeError(w, "No active grant to revoke.", http.StatusNotFound)
		return
	}

	a.invalidateGrant(r.Context(), req.PublicID, req.DeveloperID)
	writeJSON(w, http.StatusOK, revoked)
}

// Archive soft-deletes a catalog entry. The entry stops resolving but its
// row and stored object remain. Archiving an archived entry is a no-op.
func (a *Admin) Archive(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")

	item, part, err := a.findEntry(publicID)
	if err != nil {
		writeFailure(w, "archive", err)
		return
	}

	if item != nil {
		if item.IsActive() {
			item, err = a.items.Archive(item.ID)
			if err != nil {
				writeFailure(w, "archive", fmt.Errorf("%w: archive item: %w", catalog.ErrStorageUnavailable, err))
				return
			}
			a.invalidateEntry(r.Context(), publicID)
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
		return
	}

	if part.IsActive() {
		part, err = a.parts.Archive(part.ID)
		if err != nil {
			writeFailure(w, "archive", fmt.Errorf("%w: archive avatar part: %w", catalog.ErrStorageUnavailable, err))
			return
		}
		a.invalidateEntry(r.Context(), publicID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"avatar_part": part})
}

// renameRequest is the JSON body for a rename.
type renameRequest struct {
	Name string `json:"name"`
}

// Rename updates an entry's display name and re-allocates its slug, never
// colliding with other entries but allowed to keep its own. The public ID
// is permanent and does not change.
func (a *Admin) Rename(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if msg := validateName(name); msg != "" {
		writeError(w, msg, http.StatusBadRequest)
		return
	}

	item, part, err := a.findEntry(publicID)
	if err != nil {
		writeFailure(w, "rename", err)
		return
	}

	if item != nil {
		slug, err := a.itemAlloc.AllocateSlug(name, &item.ID)
		if err != nil {
			writeFailure(w, "rename", err)
			return
		}
		renamed, err := a.items.Rename(item.ID, name, slug)
		if err != nil {
			writeFailure(w, "rename", fmt.Errorf("%w: rename item: %w", catalog.ErrStorageUnavailable, err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": renamed})
		return
	}

	slug, err := a.partAlloc.AllocateSlug(name, &part.ID)
	if err != nil {
		writeFailure(w, "rename", err)
		return
	}
	renamed, err := a.parts.Rename(part.ID, name, slug)
	if err != nil {
		writeFailure(w, "rename", fmt.Errorf("%w: rename avatar part: %w", catalog.ErrStorageUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"avatar_part": renamed})
}

// upsertGrant finds the entry named by publicID and writes the grant row
// for its taxonomy. Archived entries are not grantable.
func (a *Admin) upsertGrant(req *grantRequest) (*models.PermissionGrant, error) {
	item, part, err := a.findEntry(req.PublicID)
	if err != nil {
		return nil, err
	}
	if (item != nil && !item.IsActive()) || (part != nil && !part.IsActive()) {
		return nil, fmt.Errorf("%w: entry %q is archived", catalog.ErrConflict, req.PublicID)
	}

	grant := &models.PermissionGrant{
		DeveloperID: req.DeveloperID,
		IsPaid:      req.IsPaid,
		PaidAmount:  req.PaidAmount,
		ExpiresAt:   req.ExpiresAt,
		GrantedBy:   req.GrantedBy,
		Reason:      req.Reason,
	}

	if item != nil {
		grant.ItemID = &item.ID
		saved, err := a.grants.UpsertForItem(grant)
		if err != nil {
			return nil, fmt.Errorf("%w: upsert item grant: %w", catalog.ErrStorageUnavailable, err)
		}
		return saved, nil
	}

	grant.AvatarPartID = &part.ID
	saved, err := a.grants.UpsertForAvatarPart(grant)
	if err != nil {
		return nil, fmt.Errorf("%w: upsert avatar part grant: %w", catalog.ErrStorageUnavailable, err)
	}
	return saved, nil
}

// findEntry resolves a public ID to its row in either taxonomy, archived
// or not. Items are checked first, mirroring resolution order.
func (a *Admin) findEntry(publicID string) (*models.Item, *models.AvatarPart, error) {
	item, err := a.items.FindByPublicID(publicID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: lookup item %q: %w", catalog.ErrStorageUnavailable, publicID, err)
	}
	if item != nil {
		return item, nil, nil
	}

	part, err := a.parts.FindByPublicID(publicID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: lookup avatar part %q: %w", catalog.ErrStorageUnavailable, publicID, err)
	}
	if part != nil {
		return nil, part, nil
	}

	return nil, nil, fmt.Errorf("%w: entry %q", catalog.ErrNotFound, publicID)
}

// invalidateGrant drops cached decisions affected by one developer's grant
// on one entry.
func (a *Admin) invalidateGrant(ctx context.Context, publicID string, developerID uuid.UUID) {
	if a.decisions != nil {
		a.decisions.InvalidateGrant(ctx, publicID, developerID)
	}
}

// invalidateEntry drops every cached decision for an entry.
func (a *Admin) invalidateEntry(ctx context.Context, publicID string) {
	if a.decisions != nil {
		a.decisions.InvalidateEntry(ctx, publicID)
	}
}
