package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

type Cache interface {
	Set(key string, value interface{}, ttl time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	DeletePattern(pattern string) error
	Exists(key string) (bool, error)
	Counter(key string) (int64, error)
	Incr(key string) (int64, error)
	Stats() map[string]interface{}
	Health() error
	Close() error
}

var _ Cache = (*RedisCache)(nil)

// MultiLevelCache keeps a short-lived process-local copy (L1) in front of an
// optional shared cache (L2). L2 failures are logged and degrade to a miss.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      Cache
	l1TTL   time.Duration
	breaker *CircuitBreaker
	metrics *CacheMetrics
	log     *slog.Logger

	// counters back Counter and Incr when there is no L2.
	countersMu sync.Mutex
	counters   map[string]int64
}

type MultiLevelOption func(*MultiLevelCache)

// WithL1TTL caps how long an entry may live in the local layer.
func WithL1TTL(ttl time.Duration) MultiLevelOption {
	return func(c *MultiLevelCache) {
		if ttl > 0 {
			c.l1TTL = ttl
		}
	}
}

func WithCircuitBreaker(cb *CircuitBreaker) MultiLevelOption {
	return func(c *MultiLevelCache) {
		if cb != nil {
			c.breaker = cb
		}
	}
}

func WithLogger(log *slog.Logger) MultiLevelOption {
	return func(c *MultiLevelCache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewMultiLevelCache accepts a nil l2 for single-process deployments.
func NewMultiLevelCache(l2 Cache, opts ...MultiLevelOption) *MultiLevelCache {
	c := &MultiLevelCache{
		l1:       NewMemoryCache(),
		l2:       l2,
		l1TTL:    30 * time.Second,
		breaker:  NewCircuitBreaker(nil),
		metrics:  NewCacheMetrics(),
		log:      slog.Default(),
		counters: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MultiLevelCache) localTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > c.l1TTL {
		return c.l1TTL
	}
	return ttl
}

func (c *MultiLevelCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.metrics.RecordError()
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	c.l1.Set(key, json.RawMessage(data), c.localTTL(ttl))
	c.metrics.RecordSet()

	if c.l2 != nil {
		err := c.breaker.Execute(func() error {
			return c.l2.Set(key, json.RawMessage(data), ttl)
		})
		if err != nil {
			c.l2Failed("set", key, err)
		}
	}

	return nil
}

func (c *MultiLevelCache) Get(key string, dest interface{}) error {
	if value, found := c.l1.Get(key); found {
		if err := copyValue(value, dest); err != nil {
			c.metrics.RecordError()
			return err
		}
		c.metrics.RecordHit()
		return nil
	}

	if c.l2 != nil {
		var raw json.RawMessage
		err := c.breaker.Execute(func() error {
			return c.l2.Get(key, &raw)
		})
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, dest); err != nil {
				c.metrics.RecordError()
				return fmt.Errorf("failed to unmarshal cached data: %w", err)
			}
			c.l1.Set(key, raw, c.l1TTL)
			c.metrics.RecordHit()
			return nil
		case !errors.Is(err, ErrCacheMiss):
			c.l2Failed("get", key, err)
		}
	}

	c.metrics.RecordMiss()
	return ErrCacheMiss
}

func (c *MultiLevelCache) Delete(key string) error {
	c.l1.Delete(key)
	c.metrics.RecordDelete()

	if c.l2 != nil {
		return c.breaker.Execute(func() error {
			return c.l2.Delete(key)
		})
	}

	return nil
}

func (c *MultiLevelCache) DeletePattern(pattern string) error {
	c.l1.DeletePattern(pattern)
	c.metrics.RecordDelete()

	if c.l2 != nil {
		return c.breaker.Execute(func() error {
			return c.l2.DeletePattern(pattern)
		})
	}

	return nil
}

func (c *MultiLevelCache) Exists(key string) (bool, error) {
	if _, found := c.l1.Get(key); found {
		return true, nil
	}

	if c.l2 != nil {
		var exists bool
		err := c.breaker.Execute(func() error {
			var err error
			exists, err = c.l2.Exists(key)
			return err
		})
		return exists, err
	}

	return false, nil
}

// Counter reads an integer shared by every process using the same L2. It is
// never served from L1, and an L2 failure is returned rather than read as 0.
func (c *MultiLevelCache) Counter(key string) (int64, error) {
	if c.l2 == nil {
		c.countersMu.Lock()
		defer c.countersMu.Unlock()
		return c.counters[key], nil
	}

	var n int64
	err := c.breaker.Execute(func() error {
		var err error
		n, err = c.l2.Counter(key)
		return err
	})
	if err != nil {
		c.l2Failed("counter", key, err)
		return 0, err
	}
	return n, nil
}

func (c *MultiLevelCache) Incr(key string) (int64, error) {
	if c.l2 == nil {
		c.countersMu.Lock()
		defer c.countersMu.Unlock()
		c.counters[key]++
		return c.counters[key], nil
	}

	var n int64
	err := c.breaker.Execute(func() error {
		var err error
		n, err = c.l2.Incr(key)
		return err
	})
	if err != nil {
		c.l2Failed("incr", key, err)
		return 0, err
	}
	return n, nil
}

func (c *MultiLevelCache) Metrics() CacheMetrics {
	return c.metrics.GetStats()
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":      c.l1.Stats(),
		"metrics": c.metrics.Snapshot(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
		stats["circuit_breaker"] = c.breaker.GetStats()
	}

	return stats
}

func (c *MultiLevelCache) Health() error {
	if c.l2 == nil {
		return nil
	}
	if c.breaker.GetState() == CircuitBreakerOpen {
		return ErrCacheDown
	}
	return c.l2.Health()
}

// RunJanitor drops expired local entries every interval until ctx is done.
func (c *MultiLevelCache) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.l1TTL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.l1.Purge(); n > 0 {
				c.log.Debug("purged expired cache entries", "count", n)
			}
		}
	}
}

// Close only clears the local layer. The L2 client is shared and closed by
// its owner.
func (c *MultiLevelCache) Close() error {
	c.l1.DeletePattern("*")
	return nil
}

func (c *MultiLevelCache) l2Failed(op, key string, err error) {
	c.metrics.RecordError()
	c.log.Warn("shared cache unavailable", "op", op, "key", key, "error", err)
}

func copyValue(src, dest interface{}) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		return fmt.Errorf("destination must be a pointer, got %T", dest)
	}

	if destValue.IsNil() {
		return fmt.Errorf("destination pointer is nil")
	}

	if raw, ok := src.(json.RawMessage); ok {
		return json.Unmarshal(raw, dest)
	}

	return copyValueViaJSON(src, dest)
}

func copyValueViaJSON(src, dest interface{}) error {
	jsonData, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to marshal source value: %w", err)
	}

	err = json.Unmarshal(jsonData, dest)
	if err != nil {
		return fmt.Errorf("failed to unmarshal to destination: %w", err)
	}

	return nil
}
