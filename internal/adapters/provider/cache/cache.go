// Package cache decorates a match data provider with a bounded cache of match
// details. Histories and errors are never cached.
package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/internal/domain/provider"
	"github.com/okian/tournify/pkg/metrics"
)

const (
	defaultMaxSize      = 1024
	defaultFetchTimeout = 30 * time.Second
)

// Cache wraps a Provider. Concurrent misses for the same match share one
// upstream call. When full, the least recently used entry is evicted.
type Cache struct {
	next         provider.Provider
	maxSize      int
	fetchTimeout time.Duration

	mu    sync.Mutex
	items map[model.MatchID]*list.Element // id -> element holding model.MatchDetails
	order *list.List                      // front is most recently used
	group singleflight.Group
}

var _ provider.Provider = (*Cache)(nil)

// New wraps next with a details cache.
func New(next provider.Provider, opts ...Option) *Cache {
	c := &Cache{
		next:         next,
		maxSize:      defaultMaxSize,
		fetchTimeout: defaultFetchTimeout,
		items:        make(map[model.MatchID]*list.Element),
		order:        list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlayerMatchHistory always goes upstream; histories change as matches are played.
func (c *Cache) PlayerMatchHistory(ctx context.Context, p model.PlayerID, window time.Duration) ([]model.MatchID, error) {
	return c.next.PlayerMatchHistory(ctx, p, window)
}

// MatchDetails serves from cache when possible. A shared fetch is detached
// from any single caller: a caller that gives up returns its own context
// error while the others keep waiting.
func (c *Cache) MatchDetails(ctx context.Context, id model.MatchID) (model.MatchDetails, error) {
	if c.maxSize <= 0 {
		return c.next.MatchDetails(ctx, id)
	}
	if d, ok := c.get(id); ok {
		metrics.RecordCacheHit()
		return d, nil
	}
	metrics.RecordCacheMiss()

	ch := c.group.DoChan(string(id), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		d, err := c.next.MatchDetails(fctx, id)
		if err != nil {
			return model.MatchDetails{}, err
		}
		c.put(d)
		return d, nil
	})

	select {
	case <-ctx.Done():
		return model.MatchDetails{}, fmt.Errorf("details %s: %w", id, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return model.MatchDetails{}, r.Err
		}
		return clone(r.Val.(model.MatchDetails)), nil
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) get(id model.MatchID) (model.MatchDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[id]
	if !ok {
		return model.MatchDetails{}, false
	}
	c.order.MoveToFront(el)
	return clone(el.Value.(model.MatchDetails)), true
}

func (c *Cache) put(d model.MatchDetails) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[d.MatchID]; ok {
		el.Value = d
		c.order.MoveToFront(el)
		return
	}
	if c.order.Len() >= c.maxSize {
		c.evictOldest()
	}
	c.items[d.MatchID] = c.order.PushFront(d)
	metrics.UpdateCacheSize(c.order.Len())
}

// evictOldest must be called with c.mu held.
func (c *Cache) evictOldest() {
	el := c.order.Back()
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.items, el.Value.(model.MatchDetails).MatchID)
}

// clone copies the player slice so callers cannot mutate cached entries.
func clone(d model.MatchDetails) model.MatchDetails {
	d.Players = append([]model.PerformanceRecord(nil), d.Players...)
	return d
}
