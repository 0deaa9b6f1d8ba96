// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Petarainsoft/myroom-catalog/internal/models"
)

// DeveloperStore handles developer accounts and their API credentials.
type DeveloperStore struct {
	db *sql.DB
}

// NewDeveloperStore returns a new DeveloperStore.
func NewDeveloperStore(db *sql.DB) *DeveloperStore {
	return &DeveloperStore{db: db}
}

const developerColumns = `id, name, email, api_key_prefix, api_key_digest, status, created_at, updated_at`

// scanDeveloper scans a developer row from the result set.
func scanDeveloper(scanner interface{ Scan(...any) error }) (*models.Developer, error) {
	var d models.Developer
	err := scanner.Scan(
		&d.ID, &d.Name, &d.Email, &d.APIKeyPrefix, &d.APIKeyDigest,
		&d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create registers a developer and mints their API key. Only the bcrypt
// digest of the secret half is stored; the full plaintext key is returned
// exactly once and cannot be recovered later.
func (s *DeveloperStore) Create(name, email string) (*models.Developer, string, error) {
	prefix, secret, err := generateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash api key: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO developers (name, email, api_key_prefix, api_key_digest)
		VALUES ($1, $2, $3, $4)
		RETURNING `+developerColumns,
		name, email, prefix, string(digest),
	)
	d, err := scanDeveloper(row)
	if err != nil {
		return nil, "", fmt.Errorf("create developer: %w", err)
	}
	return d, "mrk_" + prefix + "_" + secret, nil
}

// FindByID retrieves a developer by UUID. Returns nil if not found.
func (s *DeveloperStore) FindByID(id uuid.UUID) (*models.Developer, error) {
	row := s.db.QueryRow(`SELECT `+developerColumns+` FROM developers WHERE id = $1`, id)
	d, err := scanDeveloper(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find developer by id: %w", err)
	}
	return d, nil
}

// FindByEmail retrieves a developer by email. Returns nil if not found.
func (s *DeveloperStore) FindByEmail(email string) (*models.Developer, error) {
	row := s.db.QueryRow(`SELECT `+developerColumns+` FROM developers WHERE email = $1`, email)
	d, err := scanDeveloper(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find developer by email: %w", err)
	}
	return d, nil
}

// FindByAPIKeyPrefix retrieves a developer by the public half of their API
// key. Returns nil if not found.
func (s *DeveloperStore) FindByAPIKeyPrefix(prefix string) (*models.Developer, error) {
	row := s.db.QueryRow(`SELECT `+developerColumns+` FROM developers WHERE api_key_prefix = $1`, prefix)
	d, err := scanDeveloper(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find developer by api key prefix: %w", err)
	}
	return d, nil
}

// CheckAPIKey verifies the secret half of an API key against the
// developer's stored digest.
func (s *DeveloperStore) CheckAPIKey(d *models.Developer, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(d.APIKeyDigest), []byte(secret)) == nil
}

// generateAPIKey mints a fresh key pair: an 8-hex-char lookup prefix and a
// 32-hex-char secret.
func generateAPIKey() (prefix, secret string, err error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	hexed := hex.EncodeToString(buf)
	return hexed[:8], hexed[8:], nil
}
