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

// ProjectStore handles developer projects.
type ProjectStore struct {
	db *sql.DB
}

// NewProjectStore returns a new ProjectStore.
func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectColumns = `id, developer_id, name, created_at, updated_at`

// scanProject scans a project row from the result set.
func scanProject(scanner interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	err := scanner.Scan(&p.ID, &p.DeveloperID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new project for a developer and returns it.
func (s *ProjectStore) Create(developerID uuid.UUID, name string) (*models.Project, error) {
	row := s.db.QueryRow(`
		INSERT INTO projects (developer_id, name)
		VALUES ($1, $2)
		RETURNING `+projectColumns,
		developerID, name,
	)
	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// FindByID retrieves a project by UUID. Returns nil if not found.
func (s *ProjectStore) FindByID(id uuid.UUID) (*models.Project, error) {
	row := s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find project by id: %w", err)
	}
	return p, nil
}

// ListByDeveloper returns a developer's projects, oldest first.
func (s *ProjectStore) ListByDeveloper(developerID uuid.UUID) ([]models.Project, error) {
	rows, err := s.db.Query(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE developer_id = $1
		ORDER BY created_at ASC
	`, developerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Owns reports whether the project belongs to the developer. Request
// handlers use this to validate a caller-supplied project context before
// trusting it in access decisions.
func (s *ProjectStore) Owns(projectID, developerID uuid.UUID) (bool, error) {
	var owns bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1 AND developer_id = $2)
	`, projectID, developerID).Scan(&owns)
	if err != nil {
		return false, fmt.Errorf("check project ownership: %w", err)
	}
	return owns, nil
}
