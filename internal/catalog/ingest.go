// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Petarainsoft/myroom-catalog/internal/models"
	"github.com/Petarainsoft/myroom-catalog/internal/slug"
	"github.com/Petarainsoft/myroom-catalog/internal/storage"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

// Taxonomy names one of the two parallel catalogs.
type Taxonomy string

const (
	TaxonomyItems       Taxonomy = "items"
	TaxonomyAvatarParts Taxonomy = "avatar_parts"
)

// itemStore is the subset of the item store the writer drives.
type itemStore interface {
	prober
	Create(i *models.Item) (*models.Item, error)
	FindActiveByS3Key(key string) (*models.Item, error)
}

// avatarPartStore is the subset of the avatar part store the writer drives.
type avatarPartStore interface {
	prober
	Create(p *models.AvatarPart) (*models.AvatarPart, error)
	FindActiveByS3Key(key string) (*models.AvatarPart, error)
}

// uploader is the subset of the upload pipeline the writer drives.
type uploader interface {
	Upload(ctx context.Context, data []byte, key string, opts storage.Options) (*storage.Result, error)
}

// IngestRequest carries one asset into the catalog.
type IngestRequest struct {
	Name              string
	Data              []byte
	FileName          string
	ContentType       string
	HierarchySegments []string
	// AccessPolicy defaults to developers-only when empty.
	AccessPolicy models.AccessPolicy
	IsPremium    bool
	// IsFree applies to the avatar taxonomy only.
	IsFree         bool
	OwnerProjectID *uuid.UUID
	UploaderID     *uuid.UUID
}

// Writer sequences one ingestion: resolve hierarchy, checksum, upload,
// allocate identifiers, persist the entry. The upload and the relational
// insert are deliberately not transactional; a failed insert leaves the
// object behind for the reconciliation sweep, and a later re-ingest of the
// same asset adopts it.
type Writer struct {
	hierarchy *HierarchyResolver
	items     itemStore
	parts     avatarPartStore
	itemAlloc *Allocator
	partAlloc *Allocator
	uploads   uploader
}

// NewWriter wires the writer over concrete stores and the upload pipeline.
// Returns nil when the uploader is nil so callers can treat object storage
// as an optional dependency.
func NewWriter(hierarchy *HierarchyResolver, items *store.ItemStore, parts *store.AvatarPartStore, uploads *storage.Uploader) *Writer {
	if uploads == nil {
		return nil
	}
	return &Writer{
		hierarchy: hierarchy,
		items:     items,
		parts:     parts,
		itemAlloc: NewAllocator(items),
		partAlloc: NewAllocator(parts),
		uploads:   uploads,
	}
}

// staged is the outcome of the taxonomy-independent half of an ingestion.
type staged struct {
	category    *models.Category
	checksum    string
	key         string
	fileType    string
	contentType string
	size        int64
	skipped     bool
}

// IngestItem runs the full pipeline for the room-item taxonomy. The
// returned bool reports whether the upload was skipped because the object
// was already present; re-ingesting an existing asset returns its current
// row untouched.
func (w *Writer) IngestItem(ctx context.Context, req IngestRequest) (*models.Item, bool, error) {
	st, err := w.stage(ctx, TaxonomyItems, &req)
	if err != nil {
		return nil, false, err
	}

	if st.skipped {
		existing, err := w.items.FindActiveByS3Key(st.key)
		if err != nil {
			return nil, false, fmt.Errorf("%w: lookup entry for key %s: %w", ErrStorageUnavailable, st.key, err)
		}
		if existing != nil {
			return existing, true, nil
		}
		// Object present but no live row: a previous run died between
		// upload and persist. Write the row now and adopt the object.
	}

	item, err := w.persistItem(&req, st)
	if err != nil {
		return nil, false, err
	}
	return item, st.skipped, nil
}

// IngestAvatarPart runs the full pipeline for the avatar taxonomy.
func (w *Writer) IngestAvatarPart(ctx context.Context, req IngestRequest) (*models.AvatarPart, bool, error) {
	st, err := w.stage(ctx, TaxonomyAvatarParts, &req)
	if err != nil {
		return nil, false, err
	}

	if st.skipped {
		existing, err := w.parts.FindActiveByS3Key(st.key)
		if err != nil {
			return nil, false, fmt.Errorf("%w: lookup entry for key %s: %w", ErrStorageUnavailable, st.key, err)
		}
		if existing != nil {
			return existing, true, nil
		}
	}

	part, err := w.persistAvatarPart(&req, st)
	if err != nil {
		return nil, false, err
	}
	return part, st.skipped, nil
}

// stage validates the request, resolves the hierarchy, and uploads the
// payload under the deterministic destination key.
func (w *Writer) stage(ctx context.Context, tax Taxonomy, req *IngestRequest) (*staged, error) {
	normalized := slug.Underscore(req.Name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: name %q normalizes to nothing", ErrInvalidInput, req.Name)
	}
	if req.AccessPolicy == "" {
		req.AccessPolicy = models.AccessDevelopersOnly
	}
	if !req.AccessPolicy.Valid() {
		return nil, fmt.Errorf("%w: unknown access policy %q", ErrInvalidInput, req.AccessPolicy)
	}
	if req.AccessPolicy == models.AccessProjectOnly && req.OwnerProjectID == nil {
		return nil, fmt.Errorf("%w: project-only entries need an owner project", ErrInvalidInput)
	}
	ext := normalizeExt(req.FileName)
	if ext == "" {
		return nil, fmt.Errorf("%w: file name %q has no extension", ErrInvalidInput, req.FileName)
	}

	category, err := w.hierarchy.Resolve(req.HierarchySegments)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(req.Data)
	checksum := hex.EncodeToString(sum[:])

	// Same taxonomy, hierarchy, and name always map to the same key. That
	// determinism is what makes skip-if-exists mean "same logical asset".
	key := fmt.Sprintf("models/%s/%s/%s.%s", tax, category.Path, normalized, ext)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := storage.DefaultOptions(contentType)
	opts.Metadata = map[string]string{"checksum-sha256": checksum}

	res, err := w.uploads.Upload(ctx, req.Data, key, opts)
	if err != nil {
		return nil, err
	}

	return &staged{
		category:    category,
		checksum:    checksum,
		key:         res.Key,
		fileType:    ext,
		contentType: contentType,
		size:        res.SizeBytes,
		skipped:     res.WasSkipped,
	}, nil
}

// persistItem allocates identifiers and inserts the row. A unique
// violation means another ingestion claimed the candidate between probe
// and insert; allocation is re-run once against fresh state.
func (w *Writer) persistItem(req *IngestRequest, st *staged) (*models.Item, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		publicID, err := w.itemAlloc.AllocatePublicID(st.category.Path, req.Name)
		if err != nil {
			return nil, err
		}
		slugVal, err := w.itemAlloc.AllocateSlug(req.Name, nil)
		if err != nil {
			return nil, err
		}

		created, err := w.items.Create(&models.Item{
			PublicID:       publicID,
			Slug:           slugVal,
			Name:           req.Name,
			CategoryID:     st.category.ID,
			S3Key:          st.key,
			Checksum:       st.checksum,
			ContentType:    st.contentType,
			SizeBytes:      st.size,
			FileType:       st.fileType,
			AccessPolicy:   req.AccessPolicy,
			IsPremium:      req.IsPremium,
			OwnerProjectID: req.OwnerProjectID,
			UploaderID:     req.UploaderID,
		})
		if err == nil {
			return created, nil
		}
		if !store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %w", ErrCatalogWrite, err)
		}
		lastErr = err
		slog.Warn("identifier claimed between probe and insert, re-allocating",
			"taxonomy", string(TaxonomyItems),
			"name", req.Name,
		)
	}
	return nil, fmt.Errorf("%w: %w", ErrCatalogWrite, lastErr)
}

// persistAvatarPart mirrors persistItem for the avatar taxonomy.
func (w *Writer) persistAvatarPart(req *IngestRequest, st *staged) (*models.AvatarPart, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		publicID, err := w.partAlloc.AllocatePublicID(st.category.Path, req.Name)
		if err != nil {
			return nil, err
		}
		slugVal, err := w.partAlloc.AllocateSlug(req.Name, nil)
		if err != nil {
			return nil, err
		}

		created, err := w.parts.Create(&models.AvatarPart{
			PublicID:       publicID,
			Slug:           slugVal,
			Name:           req.Name,
			CategoryID:     st.category.ID,
			S3Key:          st.key,
			Checksum:       st.checksum,
			ContentType:    st.contentType,
			SizeBytes:      st.size,
			FileType:       st.fileType,
			AccessPolicy:   req.AccessPolicy,
			IsPremium:      req.IsPremium,
			IsFree:         req.IsFree,
			OwnerProjectID: req.OwnerProjectID,
			UploaderID:     req.UploaderID,
		})
		if err == nil {
			return created, nil
		}
		if !store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %w", ErrCatalogWrite, err)
		}
		lastErr = err
		slog.Warn("identifier claimed between probe and insert, re-allocating",
			"taxonomy", string(TaxonomyAvatarParts),
			"name", req.Name,
		)
	}
	return nil, fmt.Errorf("%w: %w", ErrCatalogWrite, lastErr)
}

// normalizeExt extracts the lowercased extension without its dot.
func normalizeExt(fileName string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
}
