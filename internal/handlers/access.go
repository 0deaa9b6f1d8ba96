package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Petarainsoft/myroom-catalog/internal/access"
	"github.com/Petarainsoft/myroom-catalog/internal/catalog"
	"github.com/Petarainsoft/myroom-catalog/internal/middleware"
	"github.com/Petarainsoft/myroom-catalog/internal/models"
	"github.com/Petarainsoft/myroom-catalog/internal/storage"
	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

// presignExpiry is how long a presigned URL for a gated model is valid.
const presignExpiry = 1 * time.Hour

// Access groups the access-decision and file-resolution handlers.
type Access struct {
	resolver      *access.Resolver
	projects      *store.ProjectStore
	storageClient *storage.Client
}

// NewAccess creates the access handler group. storageClient may be nil when
// object storage is not configured; file resolution then responds 503.
func NewAccess(resolver *access.Resolver, projects *store.ProjectStore, storageClient *storage.Client) *Access {
	return &Access{
		resolver:      resolver,
		projects:      projects,
		storageClient: storageClient,
	}
}

// Check returns the access decision for one catalog entry. A missing or
// archived entry is an ordinary denial, not an error.
func (a *Access) Check(w http.ResponseWriter, r *http.Request) {
	dev := middleware.DeveloperFromCtx(r.Context())
	publicID := chi.URLParam(r, "publicID")

	projectID, ok := a.projectParam(w, r, dev.ID)
	if !ok {
		return
	}

	decision, err := a.resolver.Decide(r.Context(), dev.ID, publicID, projectID)
	if err != nil {
		writeFailure(w, "access decision", err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

// File resolves an access decision and redirects to the model binary:
// public entries to the direct file URL, everything else to a time-limited
// presigned URL.
func (a *Access) File(w http.ResponseWriter, r *http.Request) {
	if a.storageClient == nil {
		writeError(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return
	}

	dev := middleware.DeveloperFromCtx(r.Context())
	publicID := chi.URLParam(r, "publicID")

	projectID, ok := a.projectParam(w, r, dev.ID)
	if !ok {
		return
	}

	decision, err := a.resolver.Decide(r.Context(), dev.ID, publicID, projectID)
	if err != nil {
		writeFailure(w, "access decision", err)
		return
	}
	if !decision.HasAccess {
		writeJSON(w, http.StatusForbidden, decision)
		return
	}

	target, err := a.resolver.Lookup(publicID)
	if err != nil {
		// The decision allowed but the entry vanished: an archive raced
		// the lookup.
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, "Not Found", http.StatusNotFound)
			return
		}
		writeFailure(w, "entry lookup", err)
		return
	}

	if target.Policy() == models.AccessPublic {
		http.Redirect(w, r, a.storageClient.FileURL(target.S3Key()), http.StatusFound)
		return
	}

	presigned, err := a.storageClient.PresignedURL(r.Context(), target.S3Key(), presignExpiry)
	if err != nil {
		slog.Error("presign failed", "error", err, "key", target.S3Key())
		writeError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, presigned, http.StatusFound)
}

// projectParam parses the optional project_id query parameter and verifies
// ownership. On failure it writes the error response and returns ok=false.
func (a *Access) projectParam(w http.ResponseWriter, r *http.Request, developerID uuid.UUID) (*uuid.UUID, bool) {
	projectID, err := optionalUUID(r, "project_id")
	if err != nil {
		writeError(w, "Invalid project_id.", http.StatusBadRequest)
		return nil, false
	}
	if projectID == nil {
		return nil, true
	}
	if !checkProjectOwnership(w, a.projects, *projectID, developerID) {
		return nil, false
	}
	return projectID, true
}
