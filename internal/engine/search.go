package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/gwtrade/tradepost/internal/catalog"
	"github.com/gwtrade/tradepost/internal/domain"
	"github.com/gwtrade/tradepost/internal/search"
)

// TextCandidateLimit caps how many item names a text query expands to
// before order-level filtering.
const TextCandidateLimit = 200

// PreSearingCategory is the catalog category that marks an item as
// pre-searing regardless of order flags.
const PreSearingCategory = "Pre-Searing"

// MiniatureFamily is the only family the dedicated filter applies to.
const MiniatureFamily = "miniature"

// SearchEngine answers structured filters with ranked, paginated,
// aggregated result sets by joining the text index, the active order
// book and the catalog.
type SearchEngine struct {
	cat   *catalog.Catalog
	index *search.Index
}

// NewSearchEngine creates a search engine over the given catalog and
// its text index.
func NewSearchEngine(cat *catalog.Catalog, index *search.Index) *SearchEngine {
	return &SearchEngine{cat: cat, index: index}
}

// Search runs the full pipeline against one snapshot: candidate names,
// family/category narrowing, per-order predicate, enrichment,
// whole-set aggregation, sort, then pagination.
func (e *SearchEngine) Search(snap *Snapshot, filter domain.SearchFilter, now time.Time) *domain.SearchResult {
	filter.Normalize()

	var names []string
	if strings.TrimSpace(filter.Query) != "" {
		names = e.index.Query(filter.Query, TextCandidateLimit)
	} else {
		names = snap.Book.AllItemNames(true)
	}

	// Narrow at the item level before expanding to orders. Equivalent
	// to filtering after expansion, just cheaper.
	if filter.Family != "" || filter.Category != "" {
		narrowed := names[:0:0]
		for _, name := range names {
			item, ok := e.cat.Lookup(name)
			if !ok {
				continue
			}
			if filter.Family != "" && item.Family != filter.Family {
				continue
			}
			if filter.Category != "" && item.Category != filter.Category {
				continue
			}
			narrowed = append(narrowed, name)
		}
		names = narrowed
	}

	var matching []domain.ResultOrder
	agg := domain.Aggregations{
		ByFamily:   make(map[string]int),
		ByCurrency: make(map[domain.Currency]int),
	}
	sellers := make(map[string]struct{})

	for _, name := range names {
		item, ok := e.cat.Lookup(name)
		if !ok {
			continue
		}
		for _, o := range snap.Book.OrdersFor(name, true) {
			if !matches(&o, item, &filter, now) {
				continue
			}

			res := domain.ResultOrder{
				EnrichedOrder: o,
				Family:        item.Family,
				Category:      item.Category,
				PreSearing:    derivePreSearing(&o.Order, item),
			}
			if item.Family == MiniatureFamily {
				res.Dedicated = deriveDedicated(&o.Order)
			}
			if o.OrderDetails != nil {
				res.PreNerf = o.OrderDetails.PreNerf
			}
			matching = append(matching, res)

			agg.ByFamily[item.Family]++
			if o.OrderType == domain.OrderTypeSell {
				agg.SellOrders++
			} else {
				agg.BuyOrders++
			}
			for _, p := range o.Prices {
				agg.ByCurrency[p.Currency]++
			}
			sellers[o.Player] = struct{}{}
		}
	}

	agg.TotalSellers = len(sellers)
	if filter.Currency != nil {
		agg.PriceRange = priceRange(matching, *filter.Currency)
	}

	sortOrders(matching, &filter)

	total := len(matching)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return &domain.SearchResult{
		Orders:       matching[start:end],
		Total:        total,
		Aggregations: agg,
	}
}

// matches evaluates the per-order predicate: every set filter field
// must hold, unset fields impose nothing.
func matches(o *domain.EnrichedOrder, item *catalog.Item, f *domain.SearchFilter, now time.Time) bool {
	if f.OrderType != nil && o.OrderType != *f.OrderType {
		return false
	}

	// Unlike the freshness buckets, the time range is one exclusive
	// gate per query; "week" is the maximal window.
	switch f.TimeRange {
	case domain.TimeRangeOnline:
		if o.Age(now) >= domain.ActiveWindow {
			return false
		}
	case domain.TimeRangeToday:
		if o.Age(now) >= domain.TodayWindow {
			return false
		}
	}

	if f.OnlineOnly && !o.DaybreakOnline {
		return false
	}
	if f.CertifiedOnly && !o.AuthCertified {
		return false
	}

	// Weapon predicates: each set field needs WeaponDetails to exist
	// and to match; no details fails them all.
	wd := o.WeaponDetails
	if f.Attribute != "" && (wd == nil || wd.Attribute != f.Attribute) {
		return false
	}
	if f.ReqMin != nil && (wd == nil || wd.Requirement < *f.ReqMin) {
		return false
	}
	if f.ReqMax != nil && (wd == nil || wd.Requirement > *f.ReqMax) {
		return false
	}
	if f.Inscription != nil && (wd == nil || wd.Inscription != *f.Inscription) {
		return false
	}
	if f.Oldschool && (wd == nil || !wd.Oldschool) {
		return false
	}
	if f.Core != "" && (wd == nil || wd.Core != f.Core) {
		return false
	}
	if f.Prefix != "" && (wd == nil || wd.Prefix != f.Prefix) {
		return false
	}
	if f.Suffix != "" && (wd == nil || wd.Suffix != f.Suffix) {
		return false
	}

	if f.PreSearing != nil && derivePreSearing(&o.Order, item) != *f.PreSearing {
		return false
	}

	// Dedicated only applies to miniatures, and an indeterminate status
	// passes regardless of the requested value: can't filter on what
	// isn't known.
	if f.MiniDedicated != nil && item.Family == MiniatureFamily {
		if ded := deriveDedicated(&o.Order); ded != nil && *ded != *f.MiniDedicated {
			return false
		}
	}

	return matchesPrice(o, f)
}

// matchesPrice passes when at least one price entry satisfies every set
// price constraint simultaneously.
func matchesPrice(o *domain.EnrichedOrder, f *domain.SearchFilter) bool {
	hasPriceFilter := f.Currency != nil || f.PriceMin != nil || f.PriceMax != nil ||
		f.PriceEachMin != nil || f.PriceEachMax != nil
	if !hasPriceFilter {
		return true
	}

	qty := float64(o.EffectiveQuantity())
	for _, p := range o.Prices {
		if f.Currency != nil && p.Currency != *f.Currency {
			continue
		}
		if f.PriceMin != nil && p.Amount < *f.PriceMin {
			continue
		}
		if f.PriceMax != nil && p.Amount > *f.PriceMax {
			continue
		}
		each := p.Amount / qty
		if f.PriceEachMin != nil && each < *f.PriceEachMin {
			continue
		}
		if f.PriceEachMax != nil && each > *f.PriceEachMax {
			continue
		}
		return true
	}
	return false
}

// derivePreSearing reports whether the order is pre-searing: either the
// submitter flagged it or the item's category says so.
func derivePreSearing(o *domain.Order, item *catalog.Item) bool {
	if o.OrderDetails != nil && o.OrderDetails.Pre {
		return true
	}
	return item.Category == PreSearingCategory
}

// deriveDedicated resolves the dedicated status of a miniature order:
// the explicit flag when present, else keywords in the description.
// "unded" is checked first so it is never misread as containing "ded".
// Returns nil when nothing decides it.
func deriveDedicated(o *domain.Order) *bool {
	if o.OrderDetails != nil && o.OrderDetails.Dedicated != nil {
		return o.OrderDetails.Dedicated
	}
	desc := strings.ToLower(o.Description)
	if desc == "" {
		return nil
	}
	f, t := false, true
	if strings.Contains(desc, "unded") {
		return &f
	}
	if strings.Contains(desc, "ded") {
		return &t
	}
	return nil
}

// sortOrders sorts the full matching set in place. The sort is stable;
// ties keep their pipeline order.
func sortOrders(orders []domain.ResultOrder, f *domain.SearchFilter) {
	desc := f.SortOrder == domain.SortDesc

	less := func(a, b *domain.ResultOrder) bool {
		switch f.SortBy {
		case domain.SortByName:
			return a.Name < b.Name
		case domain.SortByQuantity:
			return a.Quantity < b.Quantity
		case domain.SortByPrice:
			return sortPrice(a, f) < sortPrice(b, f)
		case domain.SortByPriceEach:
			ea := sortPrice(a, f) / float64(a.EffectiveQuantity())
			eb := sortPrice(b, f) / float64(b.EffectiveQuantity())
			return ea < eb
		default: // time
			return a.LastRefresh.Before(b.LastRefresh)
		}
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if desc {
			return less(&orders[j], &orders[i])
		}
		return less(&orders[i], &orders[j])
	})
}

// sortPrice selects the price used for price sorts: the entry matching
// the filter currency when one is set, else the first entry. Missing
// prices sort as zero.
func sortPrice(o *domain.ResultOrder, f *domain.SearchFilter) float64 {
	if f.Currency != nil {
		for _, p := range o.Prices {
			if p.Currency == *f.Currency {
				return p.Amount
			}
		}
		return 0
	}
	if len(o.Prices) > 0 {
		return o.Prices[0].Amount
	}
	return 0
}

// priceRange computes min/max total price among matching orders' price
// entries of the requested currency. Nil when no entry matches.
func priceRange(orders []domain.ResultOrder, currency domain.Currency) *domain.PriceRange {
	var pr *domain.PriceRange
	for i := range orders {
		for _, p := range orders[i].Prices {
			if p.Currency != currency {
				continue
			}
			if pr == nil {
				pr = &domain.PriceRange{Min: p.Amount, Max: p.Amount, Currency: currency}
				continue
			}
			if p.Amount < pr.Min {
				pr.Min = p.Amount
			}
			if p.Amount > pr.Max {
				pr.Max = p.Amount
			}
		}
	}
	return pr
}
