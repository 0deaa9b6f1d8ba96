// Package main is the entry point for the catalog server. It loads
// configuration, connects to services, sets up routing, and starts the
// HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Petarainsoft/myroom-catalog/internal/access"
	"github.com/Petarainsoft/myroom-catalog/internal/cache"
	"github.com/Petarainsoft/myroom-catalog/internal/catalog"
	"github.com/Petarainsoft/myroom-catalog/internal/config"
	"github.com/Petarainsoft/myroom-catalog/internal/database"
	"github.com/Petarainsoft/myroom-catalog/internal/handlers"
	"github.com/Petarainsoft/myroom-catalog/internal/middleware"
	"github.com/Petarainsoft/myroom-catalog/internal/router"
	"github.com/Petarainsoft/myroom-catalog/internal/storage"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

func main() {
	// Structured logger; text output keeps local runs readable.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey for the decision cache. The cache is optional:
	// without it every decision is computed against the catalog.
	var decisions *cache.DecisionCache
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey unreachable, decision caching disabled", "error", err)
	} else {
		defer valkeyClient.Close()
		decisions = cache.NewDecisionCache(valkeyClient, cache.DefaultDecisionTTL)
	}

	// Initialize data stores.
	developers := store.NewDeveloperStore(db)
	projects := store.NewProjectStore(db)
	categories := store.NewCategoryStore(db)
	items := store.NewItemStore(db)
	parts := store.NewAvatarPartStore(db)
	grants := store.NewGrantStore(db)

	// Connect to S3-compatible object storage. Optional: without it the
	// service still answers decisions and listings, while ingestion and
	// file resolution respond 503.
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize s3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"bucket", cfg.S3Bucket,
		)
	} else {
		slog.Warn("s3 storage not configured, model ingestion disabled")
	}

	// Ingestion pipeline and access resolution.
	hierarchy := catalog.NewHierarchyResolver(categories)
	writer := catalog.NewWriter(hierarchy, items, parts, storage.NewUploader(storageClient))
	resolver := access.NewResolver(items, parts, grants, decisions)

	// Create handler groups with their dependencies.
	catalogHandlers := handlers.NewCatalog(writer, resolver, categories, projects)
	accessHandlers := handlers.NewAccess(resolver, projects, storageClient)
	adminHandlers := handlers.NewAdmin(grants, items, parts, decisions)

	// Per-client rate limit, shared across a developer's addresses.
	limiter := middleware.NewRateLimiter(300, time.Minute)
	defer limiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(developers, cfg.ServiceToken, limiter, catalogHandlers, accessHandlers, adminHandlers)

	// Create the HTTP server. ReadTimeout must accommodate model uploads:
	// a 100 MB binary on a slow uplink takes minutes, not seconds.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
