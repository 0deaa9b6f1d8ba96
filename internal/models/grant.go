// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PermissionGrant authorizes one developer to access one premium catalog
// entry, optionally until ExpiresAt. Exactly one of ItemID and AvatarPartID
// is set. Re-granting the same (developer, entry) pair supersedes the
// existing row; expired grants stay in place but are inert.
type PermissionGrant struct {
	ID           uuid.UUID  `json:"id"`
	DeveloperID  uuid.UUID  `json:"developer_id"`
	ItemID       *uuid.UUID `json:"item_id,omitempty"`
	AvatarPartID *uuid.UUID `json:"avatar_part_id,omitempty"`
	IsPaid       bool       `json:"is_paid"`
	PaidAmount   *float64   `json:"paid_amount,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	GrantedBy    *uuid.UUID `json:"granted_by,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Active reports whether the grant authorizes access at the given instant.
// A nil ExpiresAt never expires.
func (g *PermissionGrant) Active(now time.Time) bool {
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}
