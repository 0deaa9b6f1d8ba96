// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// uploader.go implements the idempotent upload pipeline: skip-if-exists,
// bounded retry with exponential backoff on transient network failures, and
// a chunked multipart mode for large payloads.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"syscall"
	"time"
)

const (
	// DefaultMaxRetries is how many times a transiently failing upload is
	// retried before giving up.
	DefaultMaxRetries = 3

	// multipartThreshold is the payload size above which uploads switch to
	// the chunked multipart mode.
	multipartThreshold = 16 << 20

	// partSize is the fixed chunk size for multipart uploads. 5 MiB is the
	// S3 minimum for all parts except the last.
	partSize = 5 << 20

	// abortTimeout bounds the cleanup call for a failed multipart session.
	// The abort must run even when the caller's context is already dead,
	// otherwise the store accumulates orphaned partial uploads.
	abortTimeout = 30 * time.Second
)

// ErrWriteFailed reports an upload that exhausted its retries or hit a
// non-transient failure. The underlying cause is wrapped.
var ErrWriteFailed = errors.New("storage write failed")

// objectStore is the subset of the storage client the pipeline drives.
// Narrowed to an interface so tests can substitute a fake store.
type objectStore interface {
	Head(ctx context.Context, key string) (*ObjectInfo, error)
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64, metadata map[string]string) error
	CreateMultipart(ctx context.Context, key, contentType string, metadata map[string]string) (string, error)
	UploadPart(ctx context.Context, key, uploadID string, partNumber int32, body io.Reader, size int64) (string, error)
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) error
	AbortMultipart(ctx context.Context, key, uploadID string) error
	FileURL(key string) string
}

// Options controls a single pipeline upload.
type Options struct {
	ContentType string
	// Metadata is attached to the stored object; ingestion includes the
	// content checksum here.
	Metadata map[string]string
	// SkipIfExists makes re-uploading to an occupied key a successful no-op.
	SkipIfExists bool
	// MaxRetries bounds retry attempts for transient failures.
	MaxRetries int
}

// DefaultOptions returns the standard ingestion options: skip occupied
// destinations and retry transient failures up to DefaultMaxRetries times.
func DefaultOptions(contentType string) Options {
	return Options{
		ContentType:  contentType,
		SkipIfExists: true,
		MaxRetries:   DefaultMaxRetries,
	}
}

// Result describes a completed (or skipped) pipeline upload.
type Result struct {
	Key        string
	PublicURL  string
	SizeBytes  int64
	WasSkipped bool
}

// Uploader runs uploads against an object store with the pipeline's
// idempotency and retry semantics.
type Uploader struct {
	store objectStore

	// sleep waits between retry attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewUploader returns an Uploader backed by the given storage client.
// Returns nil when the client is nil so callers can treat storage as an
// optional dependency.
func NewUploader(c *Client) *Uploader {
	if c == nil {
		return nil
	}
	return &Uploader{store: c, sleep: sleepCtx}
}

// Upload stores data at key, idempotently. When the key is already occupied
// and SkipIfExists is set, the existing object's metadata is returned with
// WasSkipped=true. Transient network failures (name resolution, connection
// reset, timeout) are retried with 2^attempt seconds of backoff up to
// MaxRetries; any other failure aborts immediately. After exhausting
// retries, or on a fatal error, the returned error wraps ErrWriteFailed
// with the last underlying cause.
func (u *Uploader) Upload(ctx context.Context, data []byte, key string, opts Options) (*Result, error) {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<attempt) * time.Second
			slog.Warn("transient upload failure, retrying",
				"key", key,
				"attempt", attempt,
				"backoff", backoff.String(),
				"error", lastErr,
			)
			if err := u.sleep(ctx, backoff); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrWriteFailed, key, err)
			}
		}

		res, err := u.attempt(ctx, data, key, opts)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !isTransient(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrWriteFailed, key, err)
		}
	}
	return nil, fmt.Errorf("%w: %s after %d retries: %w", ErrWriteFailed, key, opts.MaxRetries, lastErr)
}

// attempt performs one full pass: existence check, then a single put or a
// multipart session depending on payload size.
func (u *Uploader) attempt(ctx context.Context, data []byte, key string, opts Options) (*Result, error) {
	if opts.SkipIfExists {
		info, err := u.store.Head(ctx, key)
		if err != nil {
			return nil, err
		}
		if info != nil {
			slog.Debug("upload skipped, object already present",
				"key", key,
				"size_bytes", info.SizeBytes,
			)
			return &Result{
				Key:        key,
				PublicURL:  u.store.FileURL(key),
				SizeBytes:  info.SizeBytes,
				WasSkipped: true,
			}, nil
		}
	}

	size := int64(len(data))
	if size > multipartThreshold {
		if err := u.uploadMultipart(ctx, data, key, opts); err != nil {
			return nil, err
		}
	} else {
		if err := u.store.Put(ctx, key, opts.ContentType, bytes.NewReader(data), size, opts.Metadata); err != nil {
			return nil, err
		}
	}

	return &Result{
		Key:       key,
		PublicURL: u.store.FileURL(key),
		SizeBytes: size,
	}, nil
}

// uploadMultipart streams the payload in fixed-size parts and commits the
// ordered part list. Any failure before the final commit aborts the session.
func (u *Uploader) uploadMultipart(ctx context.Context, data []byte, key string, opts Options) error {
	uploadID, err := u.store.CreateMultipart(ctx, key, opts.ContentType, opts.Metadata)
	if err != nil {
		return err
	}

	var parts []CompletedPart
	for offset, num := int64(0), int32(1); offset < int64(len(data)); num++ {
		end := offset + partSize
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		chunk := data[offset:end]

		etag, err := u.store.UploadPart(ctx, key, uploadID, num, bytes.NewReader(chunk), int64(len(chunk)))
		if err != nil {
			u.abort(ctx, key, uploadID)
			return err
		}
		parts = append(parts, CompletedPart{PartNumber: num, ETag: etag})
		offset = end
	}

	if err := u.store.CompleteMultipart(ctx, key, uploadID, parts); err != nil {
		u.abort(ctx, key, uploadID)
		return err
	}

	slog.Debug("multipart upload complete",
		"key", key,
		"parts", len(parts),
		"size_bytes", len(data),
	)
	return nil
}

// abort discards an in-progress multipart session. It runs on a context
// detached from the caller's so cleanup still happens when the original
// request has timed out or been canceled.
func (u *Uploader) abort(ctx context.Context, key, uploadID string) {
	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()

	if err := u.store.AbortMultipart(abortCtx, key, uploadID); err != nil {
		slog.Warn("multipart abort failed, partial upload may be orphaned",
			"key", key,
			"upload_id", uploadID,
			"error", err,
		)
	}
}

// isTransient reports whether an upload failure is worth retrying:
// name-resolution errors, connection resets, and timeouts. Everything else
// (authorization, malformed requests, bucket misconfiguration) is permanent
// and surfaces immediately.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
