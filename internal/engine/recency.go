package engine

import (
	"github.com/gwtrade/tradepost/internal/catalog"
	"github.com/gwtrade/tradepost/internal/domain"
)

// RecencyCap bounds each feed key to its most recent entries. Once a
// key is full, newer distinct pairs are silently dropped; duplicates of
// pairs already present still merge.
const RecencyCap = 100

// RecencyAllKey is the synthetic feed key covering every family.
const RecencyAllKey = "all"

// RecencyFeed keeps, per family/category key plus the "all" key, the
// most recently refreshed distinct (item name, orderType) pairs with
// quantities accumulated and the lowest per-unit price per currency.
// Orders whose item the catalog doesn't know never enter the feed.
type RecencyFeed struct {
	entries map[string][]domain.RecencyEntry
}

// BuildRecencyFeed rebuilds the feed by replaying every registered shop
// (not just active ones). Shops must be ordered by lastRefresh
// descending so the first time a pair is seen is its freshest
// occurrence.
func BuildRecencyFeed(shops []*domain.Shop, cat *catalog.Catalog) *RecencyFeed {
	feed := &RecencyFeed{entries: make(map[string][]domain.RecencyEntry)}
	for _, shop := range shops {
		for i := range shop.Items {
			o := &shop.Items[i]
			item, ok := cat.Lookup(o.Name)
			if !ok {
				continue
			}
			feed.upsert(o, shop, item.Category)
			feed.upsert(o, shop, item.Family)
			feed.upsert(o, shop, RecencyAllKey)
		}
	}
	return feed
}

func (f *RecencyFeed) upsert(o *domain.Order, shop *domain.Shop, key string) {
	list := f.entries[key]
	qty := o.EffectiveQuantity()

	for i := range list {
		e := &list[i]
		if e.Name != o.Name || e.OrderType != o.OrderType {
			continue
		}
		e.Quantity += o.Quantity
		for _, p := range o.Prices {
			unit := p.Amount / float64(qty)
			merged := false
			for j := range e.UnitPrices {
				if e.UnitPrices[j].Currency == p.Currency {
					if unit < e.UnitPrices[j].Amount {
						e.UnitPrices[j].Amount = unit
					}
					merged = true
					break
				}
			}
			if !merged {
				e.UnitPrices = append(e.UnitPrices, domain.Price{Currency: p.Currency, Amount: unit})
			}
		}
		return
	}

	if len(list) >= RecencyCap {
		return
	}
	entry := domain.RecencyEntry{
		Name:        o.Name,
		OrderType:   o.OrderType,
		Quantity:    o.Quantity,
		LastRefresh: shop.LastRefresh,
	}
	for _, p := range o.Prices {
		entry.UnitPrices = append(entry.UnitPrices, domain.Price{Currency: p.Currency, Amount: p.Amount / float64(qty)})
	}
	f.entries[key] = append(list, entry)
}

// Entries returns the feed rows for a family, category, or the "all"
// key. Unknown keys yield an empty list.
func (f *RecencyFeed) Entries(key string) []domain.RecencyEntry {
	return f.entries[key]
}
