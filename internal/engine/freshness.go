package engine

import (
	"time"

	"github.com/gwtrade/tradepost/internal/catalog"
	"github.com/gwtrade/tradepost/internal/domain"
)

// FreshnessCounts holds the six-bucket counters per item name, rolled
// up per category, per family, and globally. The per-name map covers
// every name with at least one order, catalog-known or not; the rollups
// only sum names the catalog can place, and Unenriched counts the
// orders that were left out of them.
type FreshnessCounts struct {
	Items      map[string]domain.OrderCounts
	Categories map[string]domain.OrderCounts
	Families   map[string]domain.OrderCounts
	Global     domain.OrderCounts
	Unenriched int
}

// AggregateFreshness recomputes all freshness counters from the
// all-time order book. Each order's age is tested against each bucket's
// own threshold independently; a 5-minute-old order lands in Online,
// Today and Week at once, and a demoted shop's orders age out of Online
// and Today while still counting toward Week. Freshness decays by age,
// not by active-set membership; the active set gates search, not these
// counters.
func AggregateFreshness(book *OrderBook, cat *catalog.Catalog, now time.Time) *FreshnessCounts {
	fc := &FreshnessCounts{
		Items:      make(map[string]domain.OrderCounts),
		Categories: make(map[string]domain.OrderCounts),
		Families:   make(map[string]domain.OrderCounts),
	}

	for _, name := range book.AllItemNames(false) {
		var counts domain.OrderCounts
		orders := book.OrdersFor(name, false)
		for i := range orders {
			counts.Tally(orders[i].OrderType, orders[i].Age(now))
		}
		fc.Items[name] = counts

		item, ok := cat.Lookup(name)
		if !ok {
			fc.Unenriched += len(orders)
			continue
		}
		cc := fc.Categories[item.Category]
		cc.Add(counts)
		fc.Categories[item.Category] = cc

		fam := fc.Families[item.Family]
		fam.Add(counts)
		fc.Families[item.Family] = fam

		fc.Global.Add(counts)
	}

	return fc
}

// ItemCounts returns the counters for one item name.
func (fc *FreshnessCounts) ItemCounts(name string) domain.OrderCounts {
	return fc.Items[name]
}
