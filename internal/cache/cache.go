// Package cache memoises ranked results in Redis. Keys combine the query id,
// its weighted terms, a fingerprint of the scoring options and the index
// generation, so a reindex or a configuration change never serves a stale
// ranking.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/index"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/resilience"
)

const (
	keyPrefix = "releval:rank:"

	breakerThreshold = 3
	breakerCooldown  = 30 * time.Second
)

// Backend is the subset of the Redis client used by the cache.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type RankCache struct {
	backend    Backend
	ttl        time.Duration
	options    string
	generation string
	group      singleflight.Group
	breaker    *resilience.Breaker
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

// New returns a cache for rankings produced under options (any stable textual
// form of the scoring configuration) against index generation generation.
func New(backend Backend, ttl time.Duration, options, generation string) *RankCache {
	return &RankCache{
		backend:    backend,
		ttl:        ttl,
		options:    options,
		generation: generation,
		breaker:    resilience.NewBreaker("rank-cache", breakerThreshold, breakerCooldown),
		logger:     slog.Default().With("component", "rank-cache"),
	}
}

func (c *RankCache) get(ctx context.Context, key string) ([]similarity.ScoredDoc, bool) {
	var (
		data string
		ok   bool
	)
	err := c.breaker.Do(func() error {
		var err error
		data, ok, err = c.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		c.logBackendError("cache get failed", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var ranked []similarity.ScoredDoc
	if err := json.Unmarshal([]byte(data), &ranked); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return ranked, true
}

func (c *RankCache) set(ctx context.Context, key string, ranked []similarity.ScoredDoc) {
	data, err := json.Marshal(ranked)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Do(func() error {
		return c.backend.Set(ctx, key, string(data), c.ttl)
	})
	if err != nil {
		c.logBackendError("cache set failed", key, err)
	}
}

// logBackendError stays quiet while the breaker short-circuits the backend.
func (c *RankCache) logBackendError(msg, key string, err error) {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Debug(msg, "key", key, "error", err)
		return
	}
	c.logger.Error(msg, "key", key, "error", err)
}

// GetOrRank returns the cached ranking of q or computes, stores and returns
// it. Concurrent callers for the same key share one computation. Cache
// failures degrade to computing the ranking.
func (c *RankCache) GetOrRank(ctx context.Context, q evaluation.Query, rank func() ([]similarity.ScoredDoc, error)) ([]similarity.ScoredDoc, bool, error) {
	key := c.Key(q)
	if ranked, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		return ranked, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		if ranked, ok := c.get(ctx, key); ok {
			c.hits.Add(1)
			return ranked, nil
		}
		c.misses.Add(1)
		ranked, err := rank()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, ranked)
		return ranked, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]similarity.ScoredDoc), false, nil
}

// Invalidate drops every ranking cached in backend, whatever options or
// generation produced it.
func Invalidate(ctx context.Context, backend Backend) (int64, error) {
	deleted, err := backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating rank cache: %w", err)
	}
	return deleted, nil
}

func (c *RankCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Key returns the cache key of q.
func (c *RankCache) Key(q evaluation.Query) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%s|%s", q.ID, c.options, c.generation)
	for _, term := range index.SortedTerms(q.Terms) {
		fmt.Fprintf(&sb, "|%s=%g", term, q.Terms[term])
	}
	hash := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%s%s:%x", keyPrefix, q.ID, hash[:16])
}

// Generation fingerprints the content of an index: every document with its
// term weights.
func Generation(idx *index.InvertedIndex) string {
	h := sha256.New()
	idx.Each(func(docID string, terms map[string]float64) error {
		fmt.Fprintf(h, "d:%s\n", docID)
		for _, t := range index.SortedTerms(terms) {
			fmt.Fprintf(h, "%s=%g\n", t, terms[t])
		}
		return nil
	})
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}
