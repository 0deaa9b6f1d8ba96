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

// GrantStore handles permission grants for both taxonomies. A developer
// holds at most one grant row per entry; re-granting supersedes the row in
// place and revoking expires it without deleting.
type GrantStore struct {
	db *sql.DB
}

// NewGrantStore returns a new GrantStore.
func NewGrantStore(db *sql.DB) *GrantStore {
	return &GrantStore{db: db}
}

const grantColumns = `id, developer_id, item_id, avatar_part_id, is_paid,
	paid_amount, expires_at, granted_by, reason, created_at, updated_at`

// scanGrant scans a permission grant row from the result set.
func scanGrant(scanner interface{ Scan(...any) error }) (*models.PermissionGrant, error) {
	var g models.PermissionGrant
	err := scanner.Scan(
		&g.ID, &g.DeveloperID, &g.ItemID, &g.AvatarPartID, &g.IsPaid,
		&g.PaidAmount, &g.ExpiresAt, &g.GrantedBy, &g.Reason, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpsertForItem grants a developer access to an item, superseding any
// existing grant for the same pair. The partial unique index on
// (developer_id, item_id) turns the re-grant into an update.
func (s *GrantStore) UpsertForItem(g *models.PermissionGrant) (*models.PermissionGrant, error) {
	row := s.db.QueryRow(`
		INSERT INTO permission_grants (developer_id, item_id, is_paid, paid_amount,
			expires_at, granted_by, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (developer_id, item_id) WHERE item_id IS NOT NULL
		DO UPDATE SET
			is_paid = EXCLUDED.is_paid,
			paid_amount = EXCLUDED.paid_amount,
			expires_at = EXCLUDED.expires_at,
			granted_by = EXCLUDED.granted_by,
			reason = EXCLUDED.reason,
			updated_at = NOW()
		RETURNING `+grantColumns,
		g.DeveloperID, g.ItemID, g.IsPaid, g.PaidAmount,
		g.ExpiresAt, g.GrantedBy, g.Reason,
	)
	result, err := scanGrant(row)
	if err != nil {
		return nil, fmt.Errorf("upsert item grant: %w", err)
	}
	return result, nil
}

// UpsertForAvatarPart grants a developer access to an avatar part,
// superseding any existing grant for the same pair.
func (s *GrantStore) UpsertForAvatarPart(g *models.PermissionGrant) (*models.PermissionGrant, error) {
	row := s.db.QueryRow(`
		INSERT INTO permission_grants (developer_id, avatar_part_id, is_paid, paid_amount,
			expires_at, granted_by, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (developer_id, avatar_part_id) WHERE avatar_part_id IS NOT NULL
		DO UPDATE SET
			is_paid = EXCLUDED.is_paid,
			paid_amount = EXCLUDED.paid_amount,
			expires_at = EXCLUDED.expires_at,
			granted_by = EXCLUDED.granted_by,
			reason = EXCLUDED.reason,
			updated_at = NOW()
		RETURNING `+grantColumns,
		g.DeveloperID, g.AvatarPartID, g.IsPaid, g.PaidAmount,
		g.ExpiresAt, g.GrantedBy, g.Reason,
	)
	result, err := scanGrant(row)
	if err != nil {
		return nil, fmt.Errorf("upsert avatar part grant: %w", err)
	}
	return result, nil
}

// FindActiveForItem returns the developer's unexpired grant for an item,
// or nil when none exists.
func (s *GrantStore) FindActiveForItem(developerID, itemID uuid.UUID) (*models.PermissionGrant, error) {
	row := s.db.QueryRow(`
		SELECT `+grantColumns+`
		FROM permission_grants
		WHERE developer_id = $1 AND item_id = $2
		  AND (expires_at IS NULL OR expires_at > NOW())
	`, developerID, itemID)
	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active item grant: %w", err)
	}
	return g, nil
}

// FindActiveForAvatarPart returns the developer's unexpired grant for an
// avatar part, or nil when none exists.
func (s *GrantStore) FindActiveForAvatarPart(developerID, avatarPartID uuid.UUID) (*models.PermissionGrant, error) {
	row := s.db.QueryRow(`
		SELECT `+grantColumns+`
		FROM permission_grants
		WHERE developer_id = $1 AND avatar_part_id = $2
		  AND (expires_at IS NULL OR expires_at > NOW())
	`, developerID, avatarPartID)
	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active avatar part grant: %w", err)
	}
	return g, nil
}

// RevokeForItem expires the developer's active item grant immediately. The
// row is kept for audit. Returns the expired grant, or nil when no active
// grant existed.
func (s *GrantStore) RevokeForItem(developerID, itemID uuid.UUID) (*models.PermissionGrant, error) {
	row := s.db.QueryRow(`
		UPDATE permission_grants
		SET expires_at = NOW(), updated_at = NOW()
		WHERE developer_id = $1 AND item_id = $2
		  AND (expires_at IS NULL OR expires_at > NOW())
		RETURNING `+grantColumns, developerID, itemID)
	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("revoke item grant: %w", err)
	}
	return g, nil
}

// RevokeForAvatarPart expires the developer's active avatar part grant
// immediately. Returns the expired grant, or nil when no active grant
// existed.
func (s *GrantStore) RevokeForAvatarPart(developerID, avatarPartID uuid.UUID) (*models.PermissionGrant, error) {
	row := s.db.QueryRow(`
		UPDATE permission_grants
		SET expires_at = NOW(), updated_at = NOW()
		WHERE developer_id = $1 AND avatar_part_id = $2
		  AND (expires_at IS NULL OR expires_at > NOW())
		RETURNING `+grantColumns, developerID, avatarPartID)
	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("revoke avatar part grant: %w", err)
	}
	return g, nil
}

// ListForDeveloper returns all of a developer's grants, active and expired,
// newest first.
func (s *GrantStore) ListForDeveloper(developerID uuid.UUID) ([]models.PermissionGrant, error) {
	rows, err := s.db.Query(`
		SELECT `+grantColumns+`
		FROM permission_grants
		WHERE developer_id = $1
		ORDER BY created_at DESC
	`, developerID)
	if err != nil {
		return nil, fmt.Errorf("list grants for developer: %w", err)
	}
	defer rows.Close()

	var grants []models.PermissionGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}
