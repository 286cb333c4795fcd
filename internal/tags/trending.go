package tags

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source returns the current tag counts of every report.
type Source func(ctx context.Context) (map[string]int, error)

// TrendingCache serves the trending aggregate from memory. A stale entry is
// returned immediately while one background refresh runs; an empty cache
// loads synchronously. With a ttl <= 0 every call goes to the source.
type TrendingCache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu          sync.RWMutex
	top         []TagCount
	loaded      bool
	refreshedAt time.Time
}

func NewTrendingCache(source Source, ttl time.Duration) *TrendingCache {
	return &TrendingCache{source: source, ttl: ttl, now: time.Now}
}

func (c *TrendingCache) Get(ctx context.Context) ([]TagCount, error) {
	if c.ttl <= 0 {
		return c.load(ctx)
	}

	c.mu.RLock()
	top, loaded, age := c.top, c.loaded, c.now().Sub(c.refreshedAt)
	c.mu.RUnlock()

	if !loaded {
		return c.refresh(ctx)
	}
	if age >= c.ttl {
		c.group.DoChan("trending", func() (interface{}, error) {
			top, err := c.store(context.Background())
			if err != nil {
				slog.Error("trending tags refresh failed", "error", err)
			}
			return top, err
		})
	}
	return top, nil
}

// Invalidate marks the cached entry stale so the next Get refreshes it.
func (c *TrendingCache) Invalidate() {
	c.mu.Lock()
	c.refreshedAt = time.Time{}
	c.mu.Unlock()
}

// Start refreshes the cache every interval until done is closed.
func (c *TrendingCache) Start(interval time.Duration, done chan struct{}) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := c.refresh(context.Background()); err != nil {
					slog.Error("trending tags refresh failed", "error", err)
				}
			case <-done:
				return
			}
		}
	}()
}

func (c *TrendingCache) refresh(ctx context.Context) ([]TagCount, error) {
	v, err, _ := c.group.Do("trending", func() (interface{}, error) {
		return c.store(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]TagCount), nil
}

func (c *TrendingCache) store(ctx context.Context) ([]TagCount, error) {
	top, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.top = top
	c.loaded = true
	c.refreshedAt = c.now()
	c.mu.Unlock()
	return top, nil
}

func (c *TrendingCache) load(ctx context.Context) ([]TagCount, error) {
	counts, err := c.source(ctx)
	if err != nil {
		return nil, err
	}
	return Top(counts, TrendingLimit), nil
}
