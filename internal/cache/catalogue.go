// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalogue.go caches rendered catalogue forests in Valkey, one entry per
// status set, so repeated listings skip the bulk read and tree assembly.
// Entries are keyed by a generation counter; every hierarchy mutation bumps
// the counter, which orphans all older entries until their TTL runs out.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"taxonomy/internal/catalog"
	"taxonomy/internal/models"
)

const (
	// catalogueKeyPrefix is the Valkey key prefix for cached forests.
	catalogueKeyPrefix = "catalogue:"

	// catalogueGenKey holds the current catalogue generation.
	catalogueGenKey = catalogueKeyPrefix + "gen"

	// DefaultCatalogueTTL is how long a rendered forest stays cached.
	DefaultCatalogueTTL = 5 * time.Minute
)

// CatalogueCache manages catalogue forest caching in Valkey.
type CatalogueCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ catalog.CatalogueCache = (*CatalogueCache)(nil)

// NewCatalogueCache creates a catalogue cache backed by the given Valkey client.
func NewCatalogueCache(client *redis.Client, ttl time.Duration) *CatalogueCache {
	if ttl == 0 {
		ttl = DefaultCatalogueTTL
	}
	return &CatalogueCache{client: client, ttl: ttl}
}

// entryKey builds the Valkey key of a forest within a generation.
func entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s%d:%s", catalogueKeyPrefix, gen, key)
}

// Generation returns the current generation. A missing counter reads as 0.
// ok is false when Valkey cannot be reached.
func (cc *CatalogueCache) Generation(ctx context.Context) (int64, bool) {
	gen, err := cc.client.Get(ctx, catalogueGenKey).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		slog.Warn("catalogue cache generation error", "error", err)
		return 0, false
	}
	return gen, true
}

// Get returns the cached forest for a status-set key in generation gen.
func (cc *CatalogueCache) Get(ctx context.Context, gen int64, key string) ([]models.CategoryDetail, bool) {
	val, err := cc.client.Get(ctx, entryKey(gen, key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("catalogue cache get error", "key", key, "error", err)
		return nil, false
	}

	var forest []models.CategoryDetail
	if err := json.Unmarshal(val, &forest); err != nil {
		slog.Warn("catalogue cache decode error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("catalogue cache hit", "key", key, "gen", gen)
	return forest, true
}

// Set stores a rendered forest under generation gen with the configured TTL.
// A forest built from a read that raced a mutation lands in a generation
// nobody reads any more.
func (cc *CatalogueCache) Set(ctx context.Context, gen int64, key string, forest []models.CategoryDetail) {
	data, err := json.Marshal(forest)
	if err != nil {
		slog.Warn("catalogue cache encode error", "key", key, "error", err)
		return
	}
	if err := cc.client.Set(ctx, entryKey(gen, key), data, cc.ttl).Err(); err != nil {
		slog.Warn("catalogue cache set error", "key", key, "error", err)
	}
}

// Invalidate bumps the generation so every existing entry is ignored.
func (cc *CatalogueCache) Invalidate(ctx context.Context) {
	gen, err := cc.client.Incr(ctx, catalogueGenKey).Result()
	if err != nil {
		slog.Warn("catalogue cache invalidate error", "error", err)
		return
	}
	slog.Debug("catalogue cache invalidated", "gen", gen)
}
