// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Petarainsoft/myroom-catalog/internal/models"
)

// ItemStore handles catalog entries in the room-item taxonomy.
type ItemStore struct {
	db *sql.DB
}

// NewItemStore returns a new ItemStore.
func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

// itemColumns lists the columns selected in item queries.
const itemColumns = `id, public_id, slug, name, category_id, s3_key, checksum,
	content_type, size_bytes, file_type, access_policy, is_premium, status,
	owner_project_id, uploader_id, archived_at, created_at, updated_at`

// scanItem scans an item row from the result set.
func scanItem(scanner interface{ Scan(...any) error }) (*models.Item, error) {
	var i models.Item
	err := scanner.Scan(
		&i.ID, &i.PublicID, &i.Slug, &i.Name, &i.CategoryID, &i.S3Key, &i.Checksum,
		&i.ContentType, &i.SizeBytes, &i.FileType, &i.AccessPolicy, &i.IsPremium, &i.Status,
		&i.OwnerProjectID, &i.UploaderID, &i.ArchivedAt, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// ListFilter narrows accessible-listing queries. Zero values mean "no
// filter"; Limit falls back to a sane page size.
type ListFilter struct {
	CategoryID *uuid.UUID
	Search     string
	FileType   string
	Limit      int
	Offset     int
}

// Create inserts a new item and returns it with generated fields. A unique
// violation on public_id or slug signals a lost allocation race; the caller
// detects it with IsUniqueViolation and re-allocates.
func (s *ItemStore) Create(i *models.Item) (*models.Item, error) {
	if i.Status == "" {
		i.Status = models.ItemStatusActive
	}
	row := s.db.QueryRow(`
		INSERT INTO items (public_id, slug, name, category_id, s3_key, checksum,
			content_type, size_bytes, file_type, access_policy, is_premium, status,
			owner_project_id, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+itemColumns,
		i.PublicID, i.Slug, i.Name, i.CategoryID, i.S3Key, i.Checksum,
		i.ContentType, i.SizeBytes, i.FileType, i.AccessPolicy, i.IsPremium, i.Status,
		i.OwnerProjectID, i.UploaderID,
	)
	result, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return result, nil
}

// FindByID retrieves an item by internal ID. Returns nil if not found.
func (s *ItemStore) FindByID(id uuid.UUID) (*models.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by id: %w", err)
	}
	return i, nil
}

// FindByPublicID retrieves an item by its public identifier, archived or
// not. Returns nil if not found. Callers that resolve access must check
// IsActive themselves.
func (s *ItemStore) FindByPublicID(publicID string) (*models.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE public_id = $1`, publicID)
	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by public id: %w", err)
	}
	return i, nil
}

// FindActiveByS3Key retrieves the active item stored under the given
// object key. Ingestion uses this to recognize a re-ingest of the same
// logical asset: deterministic keys mean one key maps to one live entry.
// Returns nil if no active entry holds the key.
func (s *ItemStore) FindActiveByS3Key(key string) (*models.Item, error) {
	row := s.db.QueryRow(`
		SELECT `+itemColumns+`
		FROM items
		WHERE s3_key = $1 AND status = 'active' AND archived_at IS NULL
	`, key)
	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by s3 key: %w", err)
	}
	return i, nil
}

// PublicIDExists reports whether a public identifier is already taken.
func (s *ItemStore) PublicIDExists(publicID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM items WHERE public_id = $1)`, publicID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check item public id: %w", err)
	}
	return exists, nil
}

// SlugExists reports whether a slug is already taken, optionally ignoring
// one row. The exclusion lets a rename keep its own current slug.
func (s *ItemStore) SlugExists(slug string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	var err error
	if excludeID == nil {
		err = s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM items WHERE slug = $1)`, slug).Scan(&exists)
	} else {
		err = s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM items WHERE slug = $1 AND id <> $2)`, slug, *excludeID).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("check item slug: %w", err)
	}
	return exists, nil
}

// accessibleItemsWhere is the single predicate that mirrors the access
// decision for listings: active rows that are public, owned by the caller's
// project, free for developers, or covered by an active grant.
const accessibleItemsWhere = `
	status = 'active' AND archived_at IS NULL
	AND (
		access_policy = 'public'
		OR (access_policy = 'project_only' AND owner_project_id = $2)
		OR (access_policy = 'developers_only' AND (
			is_premium = FALSE
			OR EXISTS (
				SELECT 1 FROM permission_grants g
				WHERE g.developer_id = $1
				  AND g.item_id = items.id
				  AND (g.expires_at IS NULL OR g.expires_at > NOW())
			)
		))
	)`

// ListAccessible returns the page of items the developer may retrieve, plus
// the total count for that predicate. A nil projectID hides project-only
// rows entirely.
func (s *ItemStore) ListAccessible(developerID uuid.UUID, projectID *uuid.UUID, f ListFilter) ([]models.Item, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	where := accessibleItemsWhere
	args := []any{developerID, projectID}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if f.FileType != "" {
		args = append(args, f.FileType)
		where += fmt.Sprintf(" AND file_type = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM items WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accessible items: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT `+itemColumns+`
		FROM items
		WHERE `+where+`
		ORDER BY created_at DESC, public_id
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accessible items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *i)
	}
	return items, total, rows.Err()
}

// Archive soft-deletes an item. The row stays for history but is excluded
// from every resolution path. Returns the archived row, or nil if the id
// does not exist.
func (s *ItemStore) Archive(id uuid.UUID) (*models.Item, error) {
	row := s.db.QueryRow(`
		UPDATE items
		SET status = 'archived', archived_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns, id)
	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive item: %w", err)
	}
	return i, nil
}

// Rename updates an item's display name and slug. The public identifier is
// permanent and never changes after creation.
func (s *ItemStore) Rename(id uuid.UUID, name, slug string) (*models.Item, error) {
	row := s.db.QueryRow(`
		UPDATE items
		SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+itemColumns, name, slug, id)
	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rename item: %w", err)
	}
	return i, nil
}
