// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the catalog service.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AccessPolicy controls who may retrieve a catalog entry.
type AccessPolicy string

const (
	// AccessPublic entries are retrievable by anyone, no grant needed.
	AccessPublic AccessPolicy = "public"
	// AccessProjectOnly entries are retrievable only by the owning project.
	AccessProjectOnly AccessPolicy = "project_only"
	// AccessDevelopersOnly entries are retrievable by registered developers,
	// subject to the premium/grant rules.
	AccessDevelopersOnly AccessPolicy = "developers_only"
)

// Valid reports whether p is a known access policy value.
func (p AccessPolicy) Valid() bool {
	switch p {
	case AccessPublic, AccessProjectOnly, AccessDevelopersOnly:
		return true
	}
	return false
}

// ItemStatus is the lifecycle state of an item entry.
type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "active"
	ItemStatusArchived ItemStatus = "archived"
)

// Item is a generic 3D asset in the room-item taxonomy. The model binary
// lives in object storage under S3Key; this row holds its catalog metadata.
type Item struct {
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
	Status         ItemStatus   `json:"status"`
	OwnerProjectID *uuid.UUID   `json:"owner_project_id,omitempty"`
	UploaderID     *uuid.UUID   `json:"uploader_id,omitempty"`
	ArchivedAt     *time.Time   `json:"archived_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsActive reports whether the item participates in resolution.
// Archived or soft-deleted entries are excluded everywhere.
func (i *Item) IsActive() bool {
	return i.Status == ItemStatusActive && i.ArchivedAt == nil
}

// FreeForDevelopers reports whether the item is retrievable without a
// permission grant under the developers-only policy.
func (i *Item) FreeForDevelopers() bool {
	return !i.IsPremium
}

// HumanSize returns a human-readable file size string.
func (i *Item) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case i.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(i.SizeBytes)/float64(mb))
	case i.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(i.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", i.SizeBytes)
	}
}
