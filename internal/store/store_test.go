// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Petarainsoft/myroom-catalog/internal/database"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "myroom")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "myroom_catalog")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanDevelopers removes test developers by email. Projects and grants
// cascade. Call in t.Cleanup().
func cleanDevelopers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM developers WHERE email = $1", email)
	}
}

// cleanItems removes test items by public_id. Grants cascade. Call in
// t.Cleanup().
func cleanItems(t *testing.T, db *sql.DB, publicIDs ...string) {
	t.Helper()
	for _, id := range publicIDs {
		db.Exec("DELETE FROM items WHERE public_id = $1", id)
	}
}

// cleanAvatarParts removes test avatar parts by public_id. Call in
// t.Cleanup().
func cleanAvatarParts(t *testing.T, db *sql.DB, publicIDs ...string) {
	t.Helper()
	for _, id := range publicIDs {
		db.Exec("DELETE FROM avatar_parts WHERE public_id = $1", id)
	}
}

// cleanCategories removes test categories by path. Children cascade, so
// passing a subtree root removes the whole branch. Entries referencing the
// branch must be cleaned first. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, paths ...string) {
	t.Helper()
	for _, path := range paths {
		db.Exec("DELETE FROM categories WHERE path = $1", path)
	}
}
