// Package cache stores execution results keyed by the recommendation id the
// caller executed.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// DefaultCapacity is the number of results kept when no capacity is configured.
const DefaultCapacity = 256

// Options configures a ResultCache.
type Options struct {
	// Capacity bounds the number of entries. Zero or negative means unbounded.
	Capacity int
	// TTL expires entries after the given age. Zero or negative disables expiry.
	TTL time.Duration
	// Logger receives eviction events at debug level. Nil disables logging.
	Logger *zap.Logger
}

// ResultCache is a bounded LRU of execution results. Writes overwrite the
// previous entry for the same id. It is safe for concurrent use.
type ResultCache struct {
	lru *expirable.LRU[string, models.ExecutionResult]
	opt Options
}

// New creates a ResultCache.
func New(opt Options) *ResultCache {
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	capacity := opt.Capacity
	if capacity < 0 {
		capacity = 0
	}
	ttl := opt.TTL
	if ttl < 0 {
		ttl = 0
	}

	logger := opt.Logger
	onEvict := func(id string, r models.ExecutionResult) {
		logger.Debug("result evicted", zap.String("action_id", id), zap.String("kind", string(r.Kind)))
	}

	return &ResultCache{
		lru: expirable.NewLRU[string, models.ExecutionResult](capacity, onEvict, ttl),
		opt: opt,
	}
}

// Put stores result under id, replacing any previous entry.
func (c *ResultCache) Put(id string, result models.ExecutionResult) {
	c.lru.Add(id, result)
}

// Get returns the result stored under id.
func (c *ResultCache) Get(id string) (models.ExecutionResult, bool) {
	return c.lru.Get(id)
}

// Contains reports whether id has a stored result without touching recency.
func (c *ResultCache) Contains(id string) bool {
	return c.lru.Contains(id)
}

// Len returns the number of stored results.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}

// Keys returns the stored ids from oldest to newest.
func (c *ResultCache) Keys() []string {
	return c.lru.Keys()
}

// Clear removes every stored result.
func (c *ResultCache) Clear() {
	c.lru.Purge()
}

// Capacity returns the configured bound, zero meaning unbounded.
func (c *ResultCache) Capacity() int {
	if c.opt.Capacity < 0 {
		return 0
	}
	return c.opt.Capacity
}
