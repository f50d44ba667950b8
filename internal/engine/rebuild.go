package engine

import (
	"time"

	"github.com/gwtrade/tradepost/internal/catalog"
	"github.com/gwtrade/tradepost/internal/domain"
)

// Snapshot is one consistent, immutable set of derived views. A new
// snapshot replaces the previous one wholesale after every mutation,
// which keeps concurrent readers safe without locking.
type Snapshot struct {
	Book    *OrderBook
	Counts  *FreshnessCounts
	Recency *RecencyFeed
	BuiltAt time.Time
}

// Rebuilder produces a fresh snapshot from the current shop sets. The
// default strategy rebuilds everything from scratch; an incremental
// implementation can replace it behind this interface without touching
// callers.
type Rebuilder interface {
	Rebuild(allShops, activeShops []*domain.Shop, now time.Time) *Snapshot
}

// FullRebuilder recomputes every derived view from the shop sets. O(total
// items) per mutation, which is fine while shop counts stay small
// relative to query volume.
type FullRebuilder struct {
	cat *catalog.Catalog
}

// NewFullRebuilder creates a rebuilder backed by the given catalog.
func NewFullRebuilder(cat *catalog.Catalog) *FullRebuilder {
	return &FullRebuilder{cat: cat}
}

// Rebuild builds the order book, freshness counters and recency feed in
// one pass. allShops must be ordered by lastRefresh descending.
func (r *FullRebuilder) Rebuild(allShops, activeShops []*domain.Shop, now time.Time) *Snapshot {
	book := BuildOrderBook(allShops, activeShops)
	return &Snapshot{
		Book:    book,
		Counts:  AggregateFreshness(book, r.cat, now),
		Recency: BuildRecencyFeed(allShops, r.cat),
		BuiltAt: now,
	}
}

// EmptySnapshot returns a snapshot with no orders, used before the
// first rebuild.
func EmptySnapshot(cat *catalog.Catalog, now time.Time) *Snapshot {
	return NewFullRebuilder(cat).Rebuild(nil, nil, now)
}
