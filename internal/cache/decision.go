// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// decision.go provides a Valkey-backed access decision cache. Resolved
// decisions are stored per (entry, developer, project) triple so hot
// entries skip the catalog and grant queries. The cache is best effort:
// every failure degrades to a miss and is logged, never surfaced.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// decisionKeyPrefix is the Valkey key prefix for cached decisions.
	decisionKeyPrefix = "decision:"

	// DefaultDecisionTTL bounds how stale a cached decision can get when
	// no invalidation fires, e.g. a grant expiring on its own.
	DefaultDecisionTTL = 5 * time.Minute
)

// DecisionCache manages access decision caching in Valkey.
type DecisionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDecisionCache creates a decision cache backed by the given Valkey
// client.
func NewDecisionCache(client *redis.Client, ttl time.Duration) *DecisionCache {
	if ttl == 0 {
		ttl = DefaultDecisionTTL
	}
	return &DecisionCache{client: client, ttl: ttl}
}

// DecisionKey returns the cache key for one (entry, developer, project)
// decision. The project segment is "-" when no project context was
// supplied; the layout keeps entry and developer as scan prefixes for
// invalidation.
func DecisionKey(publicID string, developerID uuid.UUID, projectID *uuid.UUID) string {
	project := "-"
	if projectID != nil {
		project = projectID.String()
	}
	return fmt.Sprintf("%s:%s:%s", publicID, developerID, project)
}

// Get retrieves a cached decision payload. Returns false on miss.
func (dc *DecisionCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := dc.client.Get(ctx, decisionKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("decision cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("decision cache hit", "key", key)
	return val, true
}

// Set stores a decision payload. A non-positive ttl uses the configured
// default; callers pass a shorter one when the decision rests on a grant
// that expires sooner.
func (dc *DecisionCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = dc.ttl
	}
	if err := dc.client.Set(ctx, decisionKeyPrefix+key, payload, ttl).Err(); err != nil {
		slog.Warn("decision cache set error", "key", key, "error", err)
	}
}

// InvalidateEntry removes every cached decision for an entry, across all
// developers and projects. Called when the entry is archived.
func (dc *DecisionCache) InvalidateEntry(ctx context.Context, publicID string) {
	dc.invalidatePattern(ctx, decisionKeyPrefix+publicID+":*")
}

// InvalidateGrant removes the cached decisions for one (entry, developer)
// pair, across all project contexts. Called when a grant is issued or
// revoked.
func (dc *DecisionCache) InvalidateGrant(ctx context.Context, publicID string, developerID uuid.UUID) {
	dc.invalidatePattern(ctx, decisionKeyPrefix+publicID+":"+developerID.String()+":*")
}

// invalidatePattern deletes all keys matching the pattern by scanning.
func (dc *DecisionCache) invalidatePattern(ctx context.Context, pattern string) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := dc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("decision cache scan error", "pattern", pattern, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := dc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("decision cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("decision cache invalidated", "pattern", pattern, "keys", deleted)
	}
}
