package domain

import "time"

// TimeRange is the freshness gate of a search. Unlike the aggregation
// buckets, this is a single exclusive threshold per query: "week" is the
// maximal window and imposes nothing extra.
type TimeRange string

const (
	TimeRangeOnline TimeRange = "online"
	TimeRangeToday  TimeRange = "today"
	TimeRangeWeek   TimeRange = "week"
	TimeRangeAll    TimeRange = "all"
)

// SortBy selects the search sort key.
type SortBy string

const (
	SortByTime      SortBy = "time"
	SortByPrice     SortBy = "price"
	SortByPriceEach SortBy = "priceEach"
	SortByName      SortBy = "name"
	SortByQuantity  SortBy = "quantity"
)

// SortOrder selects ascending or descending sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Search pagination bounds.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// SearchFilter is a flat set of optional predicates combined with AND.
// Nil/zero fields impose no constraint.
type SearchFilter struct {
	Query string

	Family   string
	Category string

	OrderType *OrderType

	// Weapon-specific. Each set field requires WeaponDetails to exist;
	// an order without them fails every weapon predicate that is set.
	Attribute   string
	ReqMin      *int
	ReqMax      *int
	Inscription *bool
	Oldschool   bool // true = oldschool only; false imposes nothing
	Core        string
	Prefix      string
	Suffix      string

	PreSearing    *bool
	MiniDedicated *bool

	// Price filters: an order passes when at least one of its price
	// entries satisfies every set price constraint at once.
	Currency     *Currency
	PriceMin     *float64
	PriceMax     *float64
	PriceEachMin *float64
	PriceEachMax *float64

	TimeRange     TimeRange
	OnlineOnly    bool
	CertifiedOnly bool

	Limit  int
	Offset int

	SortBy    SortBy
	SortOrder SortOrder
}

// Normalize clamps pagination and fills sort defaults.
func (f *SearchFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	if f.Limit > MaxSearchLimit {
		f.Limit = MaxSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.SortBy == "" {
		f.SortBy = SortByTime
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	if f.TimeRange == "" {
		f.TimeRange = TimeRangeAll
	}
}

// ResultOrder is a matching order enriched with catalog metadata and
// derived flags.
type ResultOrder struct {
	EnrichedOrder
	Family     string
	Category   string
	PreSearing bool
	Dedicated  *bool
	PreNerf    bool
}

// PriceRange is the min/max total price among matching orders for the
// requested currency.
type PriceRange struct {
	Min      float64
	Max      float64
	Currency Currency
}

// Aggregations are computed over the full matching set, before
// pagination.
type Aggregations struct {
	ByFamily     map[string]int
	ByCurrency   map[Currency]int
	SellOrders   int
	BuyOrders    int
	TotalSellers int
	PriceRange   *PriceRange
}

// SearchResult is one page of matches plus whole-set aggregations.
type SearchResult struct {
	Orders       []ResultOrder
	Total        int
	Aggregations Aggregations
}

// ItemOrders is the all-time order view for a single item name,
// with its catalog entry when the name is known.
type ItemOrders struct {
	Name      string
	Family    string
	Category  string
	InCatalog bool
	Orders    []EnrichedOrder
}

// RecencyEntry is one row of the recency feed: a distinct
// (name, orderType) pair with quantities accumulated and the lowest
// per-unit price seen per currency.
type RecencyEntry struct {
	Name        string
	OrderType   OrderType
	Quantity    int64
	UnitPrices  []Price
	LastRefresh time.Time
}
