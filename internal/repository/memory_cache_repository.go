package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"

	appErrors "github.com/noah-isme/teachers-admin/pkg/errors"
)

const memoryCacheCleanupInterval = 5 * time.Minute

// MemoryCacheRepository is the in-process cache used when Redis is disabled. Values are
// stored as JSON so readers always receive their own copy of a listing page or lookup list.
type MemoryCacheRepository struct {
	store *gocache.Cache
}

// NewMemoryCacheRepository constructs an empty in-memory cache.
func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{store: gocache.New(gocache.NoExpiration, memoryCacheCleanupInterval)}
}

// Get decodes the cached value for key into dest. Expired entries read as a miss.
func (r *MemoryCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := r.store.Get(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	payload, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cache value for %s has type %T", key, value)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value under key. A non-positive ttl never expires.
func (r *MemoryCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	r.store.Set(key, payload, ttl)
	return nil
}

// DeleteByPattern removes keys matching a Redis-style glob.
func (r *MemoryCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid cache pattern %s: %w", pattern, err)
	}
	for key := range r.store.Items() {
		if ok, _ := path.Match(pattern, key); ok {
			r.store.Delete(key)
		}
	}
	return nil
}

// Len reports the number of stored entries, including expired ones not yet swept.
func (r *MemoryCacheRepository) Len() int {
	return r.store.ItemCount()
}
