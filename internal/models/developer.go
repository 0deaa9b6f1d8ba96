// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// DeveloperStatus is the account state of an API consumer.
type DeveloperStatus string

const (
	DeveloperActive    DeveloperStatus = "active"
	DeveloperSuspended DeveloperStatus = "suspended"
)

// Developer is a registered API consumer. Requests authenticate with an
// API key of the form "mrk_<prefix>_<secret>"; only the bcrypt digest of
// the secret is stored, the prefix serves as the lookup handle.
type Developer struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	APIKeyPrefix string          `json:"api_key_prefix"`
	APIKeyDigest string          `json:"-"` // Never serialize the digest
	Status       DeveloperStatus `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsActive reports whether the developer account may call the API.
func (d *Developer) IsActive() bool {
	return d.Status == DeveloperActive
}
