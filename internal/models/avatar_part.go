// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// AvatarPart is a wearable asset in the avatar taxonomy. Unlike items the
// avatar taxonomy carries no status column (a part is active unless
// archived) and has an IsFree flag that overrides IsPremium.
type AvatarPart struct {
	ID             uuid.UUID    `json:"id"`
	PublicID       string       `json:"public_id"`
	Slug           string       `json:"slug"`
	Name           string       `json:"name"`
	CategoryID     uuid.UUID    `json:"category_id"`
	S3Key          string       `json:"s3_key"`
	Checksum       string       `json:"checksum"`
	ContentType    string       `json:"content_type"`
	SizeBytes      int64        `json:"size_bytes"`
	FileType       string       `json:"file_type"`
	AccessPolicy   AccessPolicy `json:"access_policy"`
	IsPremium      bool         `json:"is_premium"`
	IsFree         bool         `json:"is_free"`
	OwnerProjectID *uuid.UUID   `json:"owner_project_id,omitempty"`
	UploaderID     *uuid.UUID   `json:"uploader_id,omitempty"`
	ArchivedAt     *time.Time   `json:"archived_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsActive reports whether the part participates in resolution.
func (p *AvatarPart) IsActive() bool {
	return p.ArchivedAt == nil
}

// FreeForDevelopers reports whether the part is retrievable without a
// permission grant under the developers-only policy. IsFree overrides
// IsPremium: a part flagged free is free even when marked premium.
func (p *AvatarPart) FreeForDevelopers() bool {
	return p.IsFree || !p.IsPremium
}
