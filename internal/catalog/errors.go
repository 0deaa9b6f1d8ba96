// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog implements the ingestion pipeline: hierarchy resolution,
// identifier allocation, and the writer that sequences upload and
// persistence into one catalog entry.
package catalog

import "errors"

// Sentinel errors for the ingestion failure taxonomy. Callers match with
// errors.Is; the wrapped chain keeps the underlying cause.
var (
	// ErrInvalidInput reports malformed ingestion input: empty category
	// segments, a name that normalizes to nothing, an unusable file name.
	// Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict reports an identifier allocation that could not find a
	// free candidate within its probe budget. Unique-violation races below
	// the budget are resolved internally and never surface as this.
	ErrConflict = errors.New("identifier conflict")

	// ErrStorageUnavailable reports a relational store failure during
	// resolution or allocation lookups.
	ErrStorageUnavailable = errors.New("catalog store unavailable")

	// ErrCatalogWrite reports a relational persistence failure after a
	// successful upload. The uploaded object is left in place for the
	// reconciliation sweep; re-ingesting later reuses it.
	ErrCatalogWrite = errors.New("catalog write failed")

	// ErrNotFound reports a lookup against a nonexistent or archived
	// entry.
	ErrNotFound = errors.New("entry not found")
)
