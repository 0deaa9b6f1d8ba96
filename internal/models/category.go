// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is one node of the catalog hierarchy. Categories are created
// lazily during ingestion and never deleted by this service. The (name,
// parent) pair is unique among siblings; Path is the lowercase/underscored
// join of all ancestor names and Level is the depth with root = 1.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Path      string     `json:"path"`
	Level     int        `json:"level"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Children is populated by tree-building store methods, not by scans.
	Children []Category `json:"children,omitempty"`
}

// IsRoot reports whether the category sits at the top of the hierarchy.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
