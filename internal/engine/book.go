// Package engine holds the derived, rebuilt-per-mutation views over the
// shop registry: the per-item order book, the freshness counters, the
// recency feed, and the search pipeline that joins them with the
// catalog. All structures here are built wholesale and treated as
// immutable afterwards, so concurrent readers never need a lock.
package engine

import (
	"github.com/gwtrade/tradepost/internal/domain"
)

// OrderBook indexes item name → denormalized orders over the all-time
// shop set (item-detail queries) and the active-only set (live search
// and counts). It is rebuilt in full from the current shop sets on
// every registry mutation; shop counts are small relative to query
// volume, so no incremental patching.
type OrderBook struct {
	all    map[string][]domain.EnrichedOrder
	active map[string][]domain.EnrichedOrder
}

// BuildOrderBook projects both shop sets into per-item order lists.
// Shop state (player, liveness, certification, lastRefresh) is stamped
// onto each order here, never onto the stored Order values.
func BuildOrderBook(allShops, activeShops []*domain.Shop) *OrderBook {
	return &OrderBook{
		all:    projectShops(allShops),
		active: projectShops(activeShops),
	}
}

func projectShops(shops []*domain.Shop) map[string][]domain.EnrichedOrder {
	m := make(map[string][]domain.EnrichedOrder)
	for _, shop := range shops {
		for _, o := range shop.Items {
			m[o.Name] = append(m[o.Name], domain.EnrichedOrder{
				Order:          o,
				Player:         shop.Player,
				DaybreakOnline: shop.DaybreakOnline,
				AuthCertified:  shop.IsCertified(shop.Player),
				LastRefresh:    shop.LastRefresh,
			})
		}
	}
	return m
}

// OrdersFor returns the orders for an item name. Unknown names yield an
// empty list, not an error.
func (b *OrderBook) OrdersFor(name string, activeOnly bool) []domain.EnrichedOrder {
	if activeOnly {
		return b.active[name]
	}
	return b.all[name]
}

// AllItemNames returns every item name with at least one order.
func (b *OrderBook) AllItemNames(activeOnly bool) []string {
	m := b.all
	if activeOnly {
		m = b.active
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}

// OrderCount returns the total number of orders in the chosen view.
func (b *OrderBook) OrderCount(activeOnly bool) int {
	m := b.all
	if activeOnly {
		m = b.active
	}
	n := 0
	for _, orders := range m {
		n += len(orders)
	}
	return n
}
