// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the catalog service.
// Handlers are grouped by concern (catalog, access, admin) and receive
// their dependencies through the handler struct.
package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Petarainsoft/myroom-catalog/internal/access"
	"github.com/Petarainsoft/myroom-catalog/internal/catalog"
	"github.com/Petarainsoft/myroom-catalog/internal/middleware"
	"github.com/Petarainsoft/myroom-catalog/internal/models"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

// maxUploadSize is the maximum allowed model upload size (100 MB).
const maxUploadSize = 100 << 20

// Catalog groups the developer-facing ingestion and listing handlers.
type Catalog struct {
	writer     *catalog.Writer
	resolver   *access.Resolver
	categories *store.CategoryStore
	projects   *store.ProjectStore
}

// NewCatalog creates the catalog handler group. writer may be nil when
// object storage is not configured; ingestion then responds 503.
func NewCatalog(writer *catalog.Writer, resolver *access.Resolver, categories *store.CategoryStore, projects *store.ProjectStore) *Catalog {
	return &Catalog{
		writer:     writer,
		resolver:   resolver,
		categories: categories,
		projects:   projects,
	}
}

// ItemUpload ingests a room item model from a multipart form.
func (c *Catalog) ItemUpload(w http.ResponseWriter, r *http.Request) {
	req, ok := c.ingestRequest(w, r)
	if !ok {
		return
	}

	item, skipped, err := c.writer.IngestItem(r.Context(), req)
	if err != nil {
		writeFailure(w, "item ingestion", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"item":           item,
		"upload_skipped": skipped,
	})
}

// AvatarPartUpload ingests an avatar part model from a multipart form.
func (c *Catalog) AvatarPartUpload(w http.ResponseWriter, r *http.Request) {
	req, ok := c.ingestRequest(w, r)
	if !ok {
		return
	}
	req.IsFree = formBool(r, "is_free")

	part, skipped, err := c.writer.IngestAvatarPart(r.Context(), req)
	if err != nil {
		writeFailure(w, "avatar part ingestion", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"avatar_part":    part,
		"upload_skipped": skipped,
	})
}

// ingestRequest parses and validates the multipart ingestion fields shared
// by both taxonomies. On failure it writes the error response and returns
// ok=false.
func (c *Catalog) ingestRequest(w http.ResponseWriter, r *http.Request) (catalog.IngestRequest, bool) {
	var req catalog.IngestRequest

	dev := middleware.DeveloperFromCtx(r.Context())

	// Limit the request body to maxUploadSize plus some overhead for the
	// other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+4096)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, "File too large. Maximum size is 100 MB.", http.StatusRequestEntityTooLarge)
		return req, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "No file provided.", http.StatusBadRequest)
		return req, false
	}
	defer file.Close()

	name := r.FormValue("name")
	categoryPath := r.FormValue("category_path")
	if msg := validateUpload(name, categoryPath, header.Filename); msg != "" {
		writeError(w, msg, http.StatusBadRequest)
		return req, false
	}

	projectID, err := optionalUUID(r, "project_id")
	if err != nil {
		writeError(w, "Invalid project_id.", http.StatusBadRequest)
		return req, false
	}
	if projectID != nil && !checkProjectOwnership(w, c.projects, *projectID, dev.ID) {
		return req, false
	}

	if c.writer == nil {
		writeError(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return req, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, "Failed to read file.", http.StatusInternalServerError)
		return req, false
	}

	req = catalog.IngestRequest{
		Name:              strings.TrimSpace(name),
		Data:              data,
		FileName:          header.Filename,
		ContentType:       modelContentType(modelExt(header.Filename), header.Header.Get("Content-Type")),
		HierarchySegments: splitCategoryPath(categoryPath),
		AccessPolicy:      models.AccessPolicy(r.FormValue("access_policy")),
		IsPremium:         formBool(r, "is_premium"),
		OwnerProjectID:    projectID,
		UploaderID:        &dev.ID,
	}
	return req, true
}

// ItemsList returns the page of items the calling developer may access.
func (c *Catalog) ItemsList(w http.ResponseWriter, r *http.Request) {
	dev := middleware.DeveloperFromCtx(r.Context())

	f, page, msg := listParams(r)
	if msg != "" {
		writeError(w, msg, http.StatusBadRequest)
		return
	}
	projectID, err := optionalUUID(r, "project_id")
	if err != nil {
		writeError(w, "Invalid project_id.", http.StatusBadRequest)
		return
	}
	if projectID != nil && !checkProjectOwnership(w, c.projects, *projectID, dev.ID) {
		return
	}

	items, total, err := c.resolver.ListAccessibleItems(dev.ID, projectID, f)
	if err != nil {
		writeFailure(w, "item listing", err)
		return
	}
	if items == nil {
		items = []models.Item{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": f.Limit,
	})
}

// AvatarPartsList returns the page of avatar parts the calling developer
// may access.
func (c *Catalog) AvatarPartsList(w http.ResponseWriter, r *http.Request) {
	dev := middleware.DeveloperFromCtx(r.Context())

	f, page, msg := listParams(r)
	if msg != "" {
		writeError(w, msg, http.StatusBadRequest)
		return
	}
	projectID, err := optionalUUID(r, "project_id")
	if err != nil {
		writeError(w, "Invalid project_id.", http.StatusBadRequest)
		return
	}
	if projectID != nil && !checkProjectOwnership(w, c.projects, *projectID, dev.ID) {
		return
	}

	parts, total, err := c.resolver.ListAccessibleAvatarParts(dev.ID, projectID, f)
	if err != nil {
		writeFailure(w, "avatar part listing", err)
		return
	}
	if parts == nil {
		parts = []models.AvatarPart{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"avatar_parts": parts,
		"total":        total,
		"page":         page,
		"page_size":    f.Limit,
	})
}

// CategoriesTree returns the full category hierarchy as nested nodes.
func (c *Catalog) CategoriesTree(w http.ResponseWriter, r *http.Request) {
	tree, err := c.categories.Tree()
	if err != nil {
		slog.Error("category tree failed", "error", err)
		writeError(w, "The catalog is temporarily unavailable.", http.StatusServiceUnavailable)
		return
	}
	if tree == nil {
		tree = []models.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": tree})
}

// checkProjectOwnership verifies the developer owns the referenced project,
// writing the error response when not. Accepting an unowned project here
// would let a caller borrow another project's ownership privileges.
func checkProjectOwnership(w http.ResponseWriter, projects *store.ProjectStore, projectID, developerID uuid.UUID) bool {
	owns, err := projects.Owns(projectID, developerID)
	if err != nil {
		slog.Error("project ownership check failed", "error", err, "project_id", projectID)
		writeError(w, "The catalog is temporarily unavailable.", http.StatusServiceUnavailable)
		return false
	}
	if !owns {
		writeError(w, "Project does not belong to this developer.", http.StatusForbidden)
		return false
	}
	return true
}
