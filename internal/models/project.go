// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a developer's application built against the platform.
// Project-only catalog entries are visible solely to their owning project.
type Project struct {
	ID          uuid.UUID `json:"id"`
	DeveloperID uuid.UUID `json:"developer_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
