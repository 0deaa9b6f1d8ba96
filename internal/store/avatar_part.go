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

// AvatarPartStore handles catalog entries in the avatar taxonomy.
type AvatarPartStore struct {
	db *sql.DB
}

// NewAvatarPartStore returns a new AvatarPartStore.
func NewAvatarPartStore(db *sql.DB) *AvatarPartStore {
	return &AvatarPartStore{db: db}
}

const avatarPartColumns = `id, public_id, slug, name, category_id, s3_key, checksum,
	content_type, size_bytes, file_type, access_policy, is_premium, is_free,
	owner_project_id, uploader_id, archived_at, created_at, updated_at`

// scanAvatarPart scans an avatar part row from the result set.
func scanAvatarPart(scanner interface{ Scan(...any) error }) (*models.AvatarPart, error) {
	var p models.AvatarPart
	err := scanner.Scan(
		&p.ID, &p.PublicID, &p.Slug, &p.Name, &p.CategoryID, &p.S3Key, &p.Checksum,
		&p.ContentType, &p.SizeBytes, &p.FileType, &p.AccessPolicy, &p.IsPremium, &p.IsFree,
		&p.OwnerProjectID, &p.UploaderID, &p.ArchivedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new avatar part and returns it with generated fields.
// Unique violations on public_id or slug surface to the caller for
// re-allocation, same as items.
func (s *AvatarPartStore) Create(p *models.AvatarPart) (*models.AvatarPart, error) {
	row := s.db.QueryRow(`
		INSERT INTO avatar_parts (public_id, slug, name, category_id, s3_key, checksum,
			content_type, size_bytes, file_type, access_policy, is_premium, is_free,
			owner_project_id, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+avatarPartColumns,
		p.PublicID, p.Slug, p.Name, p.CategoryID, p.S3Key, p.Checksum,
		p.ContentType, p.SizeBytes, p.FileType, p.AccessPolicy, p.IsPremium, p.IsFree,
		p.OwnerProjectID, p.UploaderID,
	)
	result, err := scanAvatarPart(row)
	if err != nil {
		return nil, fmt.Errorf("create avatar part: %w", err)
	}
	return result, nil
}

// FindByID retrieves an avatar part by internal ID. Returns nil if not found.
func (s *AvatarPartStore) FindByID(id uuid.UUID) (*models.AvatarPart, error) {
	row := s.db.QueryRow(`SELECT `+avatarPartColumns+` FROM avatar_parts WHERE id = $1`, id)
	p, err := scanAvatarPart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find avatar part by id: %w", err)
	}
	return p, nil
}

// FindByPublicID retrieves an avatar part by its public identifier,
// archived or not. Returns nil if not found.
func (s *AvatarPartStore) FindByPublicID(publicID string) (*models.AvatarPart, error) {
	row := s.db.QueryRow(`SELECT `+avatarPartColumns+` FROM avatar_parts WHERE public_id = $1`, publicID)
	p, err := scanAvatarPart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find avatar part by public id: %w", err)
	}
	return p, nil
}

// FindActiveByS3Key retrieves the active avatar part stored under the
// given object key. Returns nil if no active entry holds the key.
func (s *AvatarPartStore) FindActiveByS3Key(key string) (*models.AvatarPart, error) {
	row := s.db.QueryRow(`
		SELECT `+avatarPartColumns+`
		FROM avatar_parts
		WHERE s3_key = $1 AND archived_at IS NULL
	`, key)
	p, err := scanAvatarPart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find avatar part by s3 key: %w", err)
	}
	return p, nil
}

// PublicIDExists reports whether a public identifier is already taken in
// the avatar taxonomy.
func (s *AvatarPartStore) PublicIDExists(publicID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM avatar_parts WHERE public_id = $1)`, publicID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check avatar part public id: %w", err)
	}
	return exists, nil
}

// SlugExists reports whether a slug is already taken, optionally ignoring
// one row.
func (s *AvatarPartStore) SlugExists(slug string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	var err error
	if excludeID == nil {
		err = s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM avatar_parts WHERE slug = $1)`, slug).Scan(&exists)
	} else {
		err = s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM avatar_parts WHERE slug = $1 AND id <> $2)`, slug, *excludeID).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("check avatar part slug: %w", err)
	}
	return exists, nil
}

// accessibleAvatarPartsWhere mirrors the access decision for the avatar
// taxonomy: no status column, and is_free overrides is_premium.
const accessibleAvatarPartsWhere = `
	archived_at IS NULL
	AND (
		access_policy = 'public'
		OR (access_policy = 'project_only' AND owner_project_id = $2)
		OR (access_policy = 'developers_only' AND (
			is_free = TRUE
			OR is_premium = FALSE
			OR EXISTS (
				SELECT 1 FROM permission_grants g
				WHERE g.developer_id = $1
				  AND g.avatar_part_id = avatar_parts.id
				  AND (g.expires_at IS NULL OR g.expires_at > NOW())
			)
		))
	)`

// ListAccessible returns the page of avatar parts the developer may
// retrieve, plus the total count for that predicate.
func (s *AvatarPartStore) ListAccessible(developerID uuid.UUID, projectID *uuid.UUID, f ListFilter) ([]models.AvatarPart, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	where := accessibleAvatarPartsWhere
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
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM avatar_parts WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accessible avatar parts: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT `+avatarPartColumns+`
		FROM avatar_parts
		WHERE `+where+`
		ORDER BY created_at DESC, public_id
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accessible avatar parts: %w", err)
	}
	defer rows.Close()

	var parts []models.AvatarPart
	for rows.Next() {
		p, err := scanAvatarPart(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan avatar part: %w", err)
		}
		parts = append(parts, *p)
	}
	return parts, total, rows.Err()
}

// Archive soft-deletes an avatar part by stamping archived_at. Returns the
// archived row, or nil if the id does not exist.
func (s *AvatarPartStore) Archive(id uuid.UUID) (*models.AvatarPart, error) {
	row := s.db.QueryRow(`
		UPDATE avatar_parts
		SET archived_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING `+avatarPartColumns, id)
	p, err := scanAvatarPart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive avatar part: %w", err)
	}
	return p, nil
}

// Rename updates an avatar part's display name and slug. The public
// identifier never changes.
func (s *AvatarPartStore) Rename(id uuid.UUID, name, slug string) (*models.AvatarPart, error) {
	row := s.db.QueryRow(`
		UPDATE avatar_parts
		SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+avatarPartColumns, name, slug, id)
	p, err := scanAvatarPart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rename avatar part: %w", err)
	}
	return p, nil
}
