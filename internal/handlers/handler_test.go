// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable; tests that store real objects additionally skip when the
// object store is unreachable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Petarainsoft/myroom-catalog/internal/access"
	"github.com/Petarainsoft/myroom-catalog/internal/cache"
	"github.com/Petarainsoft/myroom-catalog/internal/catalog"
	"github.com/Petarainsoft/myroom-catalog/internal/database"
	"github.com/Petarainsoft/myroom-catalog/internal/middleware"
	"github.com/Petarainsoft/myroom-catalog/internal/models"
	"github.com/Petarainsoft/myroom-catalog/internal/storage"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "myroom")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "myroom_catalog")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "decision:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// testStorage builds a storage client from the test environment without
// touching the network. URL generation and presigning work offline; only
// tests that store real objects need the endpoint reachable.
func testStorage(t *testing.T) *storage.Client {
	t.Helper()

	sc, err := storage.New(
		envOr("S3_ENDPOINT", "http://localhost:9000"),
		envOr("S3_REGION", "us-east-1"),
		envOr("S3_ACCESS_KEY", "minioadmin"),
		envOr("S3_SECRET_KEY", "minioadmin"),
		envOr("S3_BUCKET", "myroom-assets"),
		os.Getenv("S3_PUBLIC_URL"),
	)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if sc == nil {
		t.Skip("skipping: storage client not configured")
	}
	return sc
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Developers *store.DeveloperStore
	Projects   *store.ProjectStore
	Categories *store.CategoryStore
	Items      *store.ItemStore
	Parts      *store.AvatarPartStore
	Grants     *store.GrantStore
	Hierarchy  *catalog.HierarchyResolver
	Decisions  *cache.DecisionCache
	Resolver   *access.Resolver
	Storage    *storage.Client
	Catalog    *Catalog
	Access     *Access
	Admin      *Admin
}

// newTestEnv creates a complete test environment with all handler
// dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)
	sc := testStorage(t)

	developers := store.NewDeveloperStore(db)
	projects := store.NewProjectStore(db)
	categories := store.NewCategoryStore(db)
	items := store.NewItemStore(db)
	parts := store.NewAvatarPartStore(db)
	grants := store.NewGrantStore(db)

	hierarchy := catalog.NewHierarchyResolver(categories)
	decisions := cache.NewDecisionCache(vk, time.Minute)
	resolver := access.NewResolver(items, parts, grants, decisions)
	writer := catalog.NewWriter(hierarchy, items, parts, storage.NewUploader(sc))

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Developers: developers,
		Projects:   projects,
		Categories: categories,
		Items:      items,
		Parts:      parts,
		Grants:     grants,
		Hierarchy:  hierarchy,
		Decisions:  decisions,
		Resolver:   resolver,
		Storage:    sc,
		Catalog:    NewCatalog(writer, resolver, categories, projects),
		Access:     NewAccess(resolver, projects, sc),
		Admin:      NewAdmin(grants, items, parts, decisions),
	}
}

// requireLiveStorage skips the test unless the object store answers. Tests
// that only validate input or generate URLs never dial and do not need it.
func (env *testEnv) requireLiveStorage(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := env.Storage.Head(ctx, "handler-test-probe"); err != nil {
		t.Skipf("skipping: object storage not reachable: %v", err)
	}
}

// uniqueSuffix returns a short random handle for test fixtures.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// seedDeveloper registers a developer and returns it with the raw API key.
// Projects and grants are removed with the developer via cascade.
func seedDeveloper(t *testing.T, env *testEnv) (*models.Developer, string) {
	t.Helper()
	dev, rawKey, err := env.Developers.Create("Handler Test Dev", "dev-"+uniqueSuffix()+"@handler.test")
	if err != nil {
		t.Fatalf("create developer: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM developers WHERE id = $1", dev.ID)
	})
	return dev, rawKey
}

// seedProject creates a project owned by the developer.
func seedProject(t *testing.T, env *testEnv, developerID uuid.UUID) *models.Project {
	t.Helper()
	p, err := env.Projects.Create(developerID, "handler-test-"+uniqueSuffix())
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

// seedCategory resolves a fresh unique category chain. Passing segments
// overrides the generated default.
func seedCategory(t *testing.T, env *testEnv, segments ...string) *models.Category {
	t.Helper()
	if len(segments) == 0 {
		segments = []string{"Handler Cat " + uniqueSuffix(), "Sub"}
	}
	cat, err := env.Hierarchy.Resolve(segments)
	if err != nil {
		t.Fatalf("resolve category: %v", err)
	}
	t.Cleanup(func() {
		// Deleting the root cascades to children. Entry cleanups run
		// first (cleanup order is LIFO).
		root, _, _ := strings.Cut(cat.Path, "/")
		env.DB.Exec("DELETE FROM categories WHERE path = $1 AND level = 1", root)
	})
	return cat
}

// seedItem inserts an item row directly, bypassing ingestion, so listing
// and access tests do not need object storage.
func seedItem(t *testing.T, env *testEnv, category *models.Category, policy models.AccessPolicy, premium bool, owner *uuid.UUID) *models.Item {
	t.Helper()
	suffix := uniqueSuffix()
	item, err := env.Items.Create(&models.Item{
		PublicID:       "handler-item-" + suffix,
		Slug:           "handler-item-" + suffix,
		Name:           "Handler Item " + suffix,
		CategoryID:     category.ID,
		S3Key:          "models/items/" + category.Path + "/handler_item_" + suffix + ".glb",
		Checksum:       "feedface",
		ContentType:    "model/gltf-binary",
		SizeBytes:      2048,
		FileType:       "glb",
		AccessPolicy:   policy,
		IsPremium:      premium,
		OwnerProjectID: owner,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM items WHERE id = $1", item.ID)
	})
	return item
}

// seedAvatarPart inserts an avatar part row directly.
func seedAvatarPart(t *testing.T, env *testEnv, category *models.Category, policy models.AccessPolicy, premium, free bool) *models.AvatarPart {
	t.Helper()
	suffix := uniqueSuffix()
	part, err := env.Parts.Create(&models.AvatarPart{
		PublicID:     "handler-part-" + suffix,
		Slug:         "handler-part-" + suffix,
		Name:         "Handler Part " + suffix,
		CategoryID:   category.ID,
		S3Key:        "models/avatar_parts/" + category.Path + "/handler_part_" + suffix + ".vrm",
		Checksum:     "feedface",
		ContentType:  "model/gltf-binary",
		SizeBytes:    1024,
		FileType:     "vrm",
		AccessPolicy: policy,
		IsPremium:    premium,
		IsFree:       free,
	})
	if err != nil {
		t.Fatalf("create avatar part: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM avatar_parts WHERE id = $1", part.ID)
	})
	return part
}

// ctxWithDeveloper injects an authenticated developer the way the
// middleware does.
func ctxWithDeveloper(ctx context.Context, dev *models.Developer) context.Context {
	return context.WithValue(ctx, middleware.DeveloperKey, dev)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// multipartUpload builds a multipart body with one file and the given form
// fields. An empty fileName omits the file part.
func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return bytes.NewReader(buf.Bytes()), mw.FormDataContentType()
}

// decodeJSON unmarshals a recorder body, failing the test on bad JSON.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}
