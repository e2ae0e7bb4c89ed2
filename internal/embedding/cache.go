package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/logger"
)

const (
	DefaultCacheEntries = 4096
	DefaultCacheTTL     = 7 * 24 * time.Hour
	keyPrefix           = "jobmatch:emb:"
)

// remote is the second cache tier. *redis.Client satisfies it through redisTier.
type remote interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type redisTier struct {
	rdb *redis.Client
}

func (r redisTier) Get(ctx context.Context, key string) ([]byte, error) {
	return r.rdb.Get(ctx, key).Bytes()
}

func (r redisTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// CacheOptions configures Cached.
type CacheOptions struct {
	MaxEntries int
	TTL        time.Duration
	// Redis enables the shared second tier when non-nil.
	Redis *redis.Client
}

// Cached memoizes another embedder: an in-memory tier bounded by MaxEntries
// and an optional Redis tier that survives restarts.
type Cached struct {
	inner  Embedder
	logger *zap.Logger

	mu    sync.Mutex
	l1    map[string][]float32
	order []string
	max   int

	l2  remote
	ttl time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCached(inner Embedder, opts CacheOptions, log *zap.Logger) *Cached {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultCacheEntries
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}

	c := &Cached{
		inner:  inner,
		logger: logger.WithEmbedder(log, providerName(inner), inner.Model()),
		l1:     make(map[string][]float32),
		max:    opts.MaxEntries,
		ttl:    opts.TTL,
	}
	if opts.Redis != nil {
		c.l2 = redisTier{rdb: opts.Redis}
	}
	return c
}

func (c *Cached) Dimensions() int { return c.inner.Dimensions() }

func (c *Cached) Model() string { return c.inner.Model() }

// Stats returns hit and miss counters.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.inner.Model(), c.inner.Dimensions(), text)

	if vec, ok := c.getLocal(key); ok {
		c.hits.Add(1)
		return vec, nil
	}

	if c.l2 != nil {
		if vec, ok := c.getRemote(ctx, key); ok {
			c.hits.Add(1)
			c.putLocal(key, vec)
			return clone(vec), nil
		}
	}

	c.misses.Add(1)
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.putLocal(key, vec)
	if c.l2 != nil {
		c.putRemote(ctx, key, vec)
	}

	return clone(vec), nil
}

func (c *Cached) getLocal(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vec, ok := c.l1[key]
	if !ok {
		return nil, false
	}
	return clone(vec), true
}

func (c *Cached) putLocal(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.l1[key]; ok {
		return
	}

	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.l1, oldest)
	}

	c.l1[key] = clone(vec)
	c.order = append(c.order, key)
}

func (c *Cached) getRemote(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.l2.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("embedding cache: remote get failed", zap.Error(err))
		}
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil || len(vec) == 0 {
		c.logger.Debug("embedding cache: dropping corrupt remote entry", zap.String("key", key))
		return nil, false
	}
	if dims := c.inner.Dimensions(); len(vec) != dims {
		c.logger.Debug("embedding cache: dropping remote entry of wrong size",
			zap.String("key", key),
			zap.Int("got", len(vec)),
			zap.Int("want", dims),
		)
		return nil, false
	}
	return vec, true
}

func (c *Cached) putRemote(ctx context.Context, key string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.l2.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Debug("embedding cache: remote set failed", zap.Error(err))
	}
}

// NewRedis connects to url and verifies the connection with a ping.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	return rdb, nil
}

// cacheKey includes the output size so that a changed dimension setting never
// reads vectors written under the old one.
func cacheKey(model string, dims int, text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", model, dims, text)))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:16])
}

func clone(v []float32) []float32 {
	return append([]float32(nil), v...)
}

func providerName(e Embedder) string {
	switch e.(type) {
	case *Hashed:
		return ProviderHashed
	case *Gemini:
		return ProviderGemini
	default:
		return ""
	}
}
