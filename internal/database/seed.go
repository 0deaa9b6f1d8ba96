package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Development credentials created by Seed. The API key is fixed so local
// clients and curl sessions survive database resets.
const (
	seedEmail     = "dev@myroom.local"
	seedKeyPrefix = "devseed1"
	seedKeySecret = "0123456789abcdef0123456789abcdef"
)

// Seed populates the database with initial development data: one developer
// account with a known API key and one project. Production deployments
// never call this.
func Seed(db *sql.DB) error {
	// Check if any developers exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM developers").Scan(&count); err != nil {
		return fmt.Errorf("seed check developers: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(seedKeySecret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	var developerID string
	err = db.QueryRow(`
		INSERT INTO developers (name, email, api_key_prefix, api_key_digest)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, "Dev Developer", seedEmail, seedKeyPrefix, string(digest)).Scan(&developerID)
	if err != nil {
		return fmt.Errorf("seed insert developer: %w", err)
	}

	if _, err := db.Exec(`
		INSERT INTO projects (developer_id, name)
		VALUES ($1, $2)
	`, developerID, "Demo Room"); err != nil {
		return fmt.Errorf("seed insert project: %w", err)
	}

	slog.Info("database seeded with development developer",
		"email", seedEmail,
		"api_key", "mrk_"+seedKeyPrefix+"_"+seedKeySecret,
	)

	return nil
}
