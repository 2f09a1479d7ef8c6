// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pdiddy/philquery/pkg/types"
)

// DefaultMaxAge is how long a synced catalogue is served before the next
// read refreshes it.
const DefaultMaxAge = 15 * time.Minute

// RetryInterval is how long reads serve the stored list after a failed
// refresh before contacting the backend again.
const RetryInterval = time.Minute

// Cache serves the source list from the store, refreshing it from the
// backend when stale. A failed refresh falls back to whatever is stored.
type Cache struct {
	store  *Store
	lister Lister
	maxAge time.Duration
	gauge  prometheus.Gauge
	logger *zap.Logger

	// refresh serialises backend fetches and guards failedAt.
	refresh  sync.Mutex
	failedAt time.Time
}

// NewCache returns a cache over store. gauge, when non-nil, is set to the
// stored count after each successful refresh.
func NewCache(store *Store, lister Lister, maxAge time.Duration, gauge prometheus.Gauge, logger *zap.Logger) *Cache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, lister: lister, maxAge: maxAge, gauge: gauge, logger: logger.Named("catalog")}
}

// Sources returns the stored list, refreshing first when it is stale.
func (c *Cache) Sources(ctx context.Context) ([]types.AvailableSource, error) {
	if err := c.refreshIfStale(ctx); err != nil {
		c.logger.Warn("source refresh failed, serving stored list", zap.Error(err))
	}
	return c.store.List(ctx, ListOptions{})
}

// Sync forces a refresh from the backend.
func (c *Cache) Sync(ctx context.Context) (int, error) {
	c.refresh.Lock()
	defer c.refresh.Unlock()
	return c.sync(ctx)
}

func (c *Cache) refreshIfStale(ctx context.Context) error {
	c.refresh.Lock()
	defer c.refresh.Unlock()

	if !c.failedAt.IsZero() && c.store.now().Sub(c.failedAt) < RetryInterval {
		return nil
	}
	stale, err := c.store.Stale(ctx, c.maxAge)
	if err != nil || !stale {
		return err
	}
	_, err = c.sync(ctx)
	return err
}

func (c *Cache) sync(ctx context.Context) (int, error) {
	n, err := c.store.Refresh(ctx, c.lister)
	if err != nil {
		c.failedAt = c.store.now()
		return 0, err
	}
	c.failedAt = time.Time{}
	if c.gauge != nil {
		c.gauge.Set(float64(n))
	}
	c.logger.Info("catalogue synced", zap.Int("sources", n))
	return n, nil
}
