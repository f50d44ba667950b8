// Package service wires the registry, catalog, text index and derived
// views into one marketplace core instance. All process-wide state
// lives on MarketplaceCore; nothing is a package-level singleton, so
// tests get fresh instances.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gwtrade/tradepost/internal/catalog"
	"github.com/gwtrade/tradepost/internal/domain"
	"github.com/gwtrade/tradepost/internal/engine"
	"github.com/gwtrade/tradepost/internal/search"
	"github.com/gwtrade/tradepost/internal/store"
)

// ItemSearchLimit caps the name-only autocomplete result.
const ItemSearchLimit = 6

// Observer receives the full per-item counts map after every rebuild.
// Every connected observer gets every update; there is no per-observer
// diffing.
type Observer interface {
	PushAvailableOrders(counts map[string]domain.OrderCounts)
}

// MarketplaceCore owns all marketplace state and serializes mutations:
// refresh, close and the expiry tick each take the write lock, rebuild
// the derived snapshot synchronously, swap it in, and broadcast. Reads
// grab the current snapshot under the read lock and then work on it
// lock-free, since snapshots are immutable once published.
type MarketplaceCore struct {
	registry *store.ShopRegistry
	cat      *catalog.Catalog
	index    *search.Index
	rebuild  engine.Rebuilder
	searcher *engine.SearchEngine
	logger   *slog.Logger

	mu   sync.RWMutex
	snap *engine.Snapshot

	obsMu     sync.Mutex
	observers map[Observer]struct{}

	nowFn func() time.Time
}

// NewMarketplaceCore constructs a core over a loaded catalog. The text
// index is built here, once, from the catalog.
func NewMarketplaceCore(cat *catalog.Catalog, logger *slog.Logger) *MarketplaceCore {
	idx := search.NewIndex(cat)
	now := time.Now()
	return &MarketplaceCore{
		registry:  store.NewShopRegistry(),
		cat:       cat,
		index:     idx,
		rebuild:   engine.NewFullRebuilder(cat),
		searcher:  engine.NewSearchEngine(cat, idx),
		logger:    logger,
		snap:      engine.EmptySnapshot(cat, now),
		observers: make(map[Observer]struct{}),
		nowFn:     time.Now,
	}
}

// rebuildLocked recomputes the snapshot from the registry. Callers must
// hold the write lock.
func (c *MarketplaceCore) rebuildLocked(now time.Time) {
	dirty := c.registry.TakeDirty()
	c.snap = c.rebuild.Rebuild(c.registry.All(), c.registry.Active(), now)
	c.logger.Debug("rebuilt derived views",
		slog.Int("dirty_items", len(dirty)),
		slog.Int("active_shops", c.registry.ActiveCount()),
		slog.Int("unenriched_orders", c.snap.Counts.Unenriched),
	)
}

// snapshot returns the current immutable snapshot.
func (c *MarketplaceCore) snapshot() *engine.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// RefreshShop validates and upserts a shop, rebuilds every derived view
// and broadcasts the updated counts. Returns the merged record for the
// handler to echo back to the submitter.
func (c *MarketplaceCore) RefreshShop(in *domain.Shop) (*domain.Shop, error) {
	now := c.nowFn()

	c.mu.Lock()
	shop, err := c.registry.Upsert(in, now)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.rebuildLocked(now)
	counts := c.snap.Counts.Items
	c.mu.Unlock()

	c.logger.Info("shop refreshed",
		slog.String("uuid", shop.UUID),
		slog.String("player", shop.Player),
		slog.Int("items", len(shop.Items)),
	)
	c.broadcast(counts)
	return shop, nil
}

// CloseShop pushes a shop out of the active set immediately.
func (c *MarketplaceCore) CloseShop(uid string) {
	now := c.nowFn()

	c.mu.Lock()
	changed := c.registry.Close(uid, now)
	if changed {
		c.rebuildLocked(now)
	}
	counts := c.snap.Counts.Items
	c.mu.Unlock()

	if changed {
		c.logger.Info("shop closed", slog.String("uuid", uid))
		c.broadcast(counts)
	}
}

// ExpireTick demotes shops whose active window has lapsed. Freshness is
// time-based and must degrade even without new events, so this runs on
// a fixed poll. If a mutation is still in flight the tick is skipped
// rather than queued behind it.
func (c *MarketplaceCore) ExpireTick(now time.Time) {
	if !c.mu.TryLock() {
		return
	}
	changed := c.registry.ExpireStale(now)
	if changed {
		c.rebuildLocked(now)
	}
	counts := c.snap.Counts.Items
	c.mu.Unlock()

	if changed {
		c.broadcast(counts)
	}
}

// Start launches the expiry poll. A single repeating task; ticks never
// overlap. Stops when ctx is cancelled.
func (c *MarketplaceCore) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				c.ExpireTick(t)
			}
		}
	}()
}

// broadcast pushes the counts map to every observer, outside the state
// lock so a slow consumer never blocks mutations.
func (c *MarketplaceCore) broadcast(counts map[string]domain.OrderCounts) {
	c.obsMu.Lock()
	observers := make([]Observer, 0, len(c.observers))
	for o := range c.observers {
		observers = append(observers, o)
	}
	c.obsMu.Unlock()

	for _, o := range observers {
		o.PushAvailableOrders(counts)
	}
}

// Subscribe registers an observer for counts broadcasts.
func (c *MarketplaceCore) Subscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers[o] = struct{}{}
}

// Unsubscribe removes an observer.
func (c *MarketplaceCore) Unsubscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	delete(c.observers, o)
}

// SearchOrders answers a structured filter from the current snapshot.
func (c *MarketplaceCore) SearchOrders(filter domain.SearchFilter) *domain.SearchResult {
	return c.searcher.Search(c.snapshot(), filter, c.nowFn())
}

// GetItemOrders returns the all-time orders for one item name together
// with its catalog entry. Unknown names yield empty orders, not an
// error.
func (c *MarketplaceCore) GetItemOrders(name string) *domain.ItemOrders {
	snap := c.snapshot()
	res := &domain.ItemOrders{
		Name:   name,
		Orders: snap.Book.OrdersFor(name, false),
	}
	if item, ok := c.cat.Lookup(name); ok {
		res.Family = item.Family
		res.Category = item.Category
		res.InCatalog = true
	}
	return res
}

// GetLastItemsByFamily reads the recency feed for a family, category,
// or "all".
func (c *MarketplaceCore) GetLastItemsByFamily(key string) []domain.RecencyEntry {
	return c.snapshot().Recency.Entries(key)
}

// GetAvailableOrders returns the full per-item-name counts map.
func (c *MarketplaceCore) GetAvailableOrders() map[string]domain.OrderCounts {
	return c.snapshot().Counts.Items
}

// Freshness exposes the complete counter set including category,
// family and global rollups.
func (c *MarketplaceCore) Freshness() *engine.FreshnessCounts {
	return c.snapshot().Counts
}

// SearchItems is the name-only autocomplete over the catalog.
func (c *MarketplaceCore) SearchItems(text string) []*catalog.Item {
	names := c.index.Query(text, ItemSearchLimit)
	return c.cat.LookupAll(names)
}

// GetItem looks up a single catalog entry.
func (c *MarketplaceCore) GetItem(name string) (*catalog.Item, error) {
	item, ok := c.cat.Lookup(name)
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

// GetPublicShop resolves a public link id to the shop's limited view.
func (c *MarketplaceCore) GetPublicShop(publicID string) (*domain.Shop, error) {
	shop, err := c.registryGetByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	return shop.PublicView(), nil
}

func (c *MarketplaceCore) registryGetByPublicID(publicID string) (*domain.Shop, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry.GetByPublicID(publicID)
}

// ShopNewerThan returns the stored shop when the server copy is fresher
// than the client's, nil otherwise.
func (c *MarketplaceCore) ShopNewerThan(uid string, since time.Time) *domain.Shop {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry.NewerThan(uid, since)
}

// Seed loads preexisting shops through the normal upsert path with one
// rebuild at the end, used at startup.
func (c *MarketplaceCore) Seed(shops []*domain.Shop) {
	now := c.nowFn()

	c.mu.Lock()
	loaded := 0
	for _, in := range shops {
		if _, err := c.registry.Upsert(in, now); err != nil {
			c.logger.Warn("skipping seed shop", slog.String("error", err.Error()))
			continue
		}
		loaded++
	}
	c.rebuildLocked(now)
	c.mu.Unlock()

	c.logger.Info("seed shops loaded", slog.Int("count", loaded))
}

// Registry exposes the shop registry for invariant checks in tests and
// the gateway's shop lookups.
func (c *MarketplaceCore) Registry() *store.ShopRegistry {
	return c.registry
}
