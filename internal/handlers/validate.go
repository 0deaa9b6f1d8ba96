package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Petarainsoft/myroom-catalog/internal/store"
)

// Validation limits for ingestion and listing inputs.
const (
	maxNameLen      = 200
	maxSegmentLen   = 100
	maxPathDepth    = 6
	defaultPageSize = 20
	maxPageSize     = 100
)

// allowedModelExts are the 3D model file extensions accepted for ingestion.
var allowedModelExts = map[string]bool{
	"glb":  true,
	"gltf": true,
	"fbx":  true,
	"obj":  true,
	"vrm":  true,
}

// extContentTypes maps model extensions to their canonical MIME types, used
// when the client does not declare a specific one. FBX has no registered
// type and stays an octet stream.
var extContentTypes = map[string]string{
	"glb":  "model/gltf-binary",
	"gltf": "model/gltf+json",
	"obj":  "model/obj",
	"fbx":  "application/octet-stream",
	"vrm":  "model/gltf-binary",
}

// validateUpload checks the ingestion form inputs and returns the first
// error found.
func validateUpload(name, categoryPath, fileName string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	segments := splitCategoryPath(categoryPath)
	if len(segments) == 0 {
		return "Category path is required."
	}
	if len(segments) > maxPathDepth {
		return "Category path is too deep (max 6 levels)."
	}
	for _, s := range segments {
		if utf8.RuneCountInString(s) > maxSegmentLen {
			return "Category segment is too long (max 100 characters)."
		}
	}
	ext := modelExt(fileName)
	if !allowedModelExts[ext] {
		return fmt.Sprintf("File type %q is not allowed. Allowed types: glb, gltf, fbx, obj, vrm.", ext)
	}
	return ""
}

// validateName checks a display name on its own, for renames.
func validateName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	return ""
}

// modelExt extracts the lowercased file extension without the dot.
func modelExt(fileName string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
}

// splitCategoryPath breaks a slash-separated hierarchy path into trimmed
// segments, dropping empties.
func splitCategoryPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// modelContentType picks the stored content type: the declared multipart
// type when it is specific, otherwise the canonical type for the extension.
func modelContentType(ext, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ct, ok := extContentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// formBool parses a boolean form or query value. Empty and unparseable
// values are false.
func formBool(r *http.Request, field string) bool {
	v, err := strconv.ParseBool(r.FormValue(field))
	return err == nil && v
}

// optionalUUID parses a form or query field that may be absent. Returns nil
// when the field is empty.
func optionalUUID(r *http.Request, field string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// listParams extracts the listing filter and 1-based page number from query
// parameters. The third return is an error message, empty when the
// parameters parse.
func listParams(r *http.Request) (store.ListFilter, int, string) {
	q := r.URL.Query()

	f := store.ListFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		FileType: strings.ToLower(strings.TrimSpace(q.Get("file_type"))),
	}
	if f.FileType != "" && !allowedModelExts[f.FileType] {
		return f, 0, fmt.Sprintf("Unknown file type %q.", f.FileType)
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, 0, "Invalid category_id."
		}
		f.CategoryID = &id
	}

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, 0, "Invalid page."
		}
		page = n
	}
	size := defaultPageSize
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, 0, "Invalid page_size."
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		size = n
	}
	f.Limit = size
	f.Offset = (page - 1) * size
	return f, page, ""
}
