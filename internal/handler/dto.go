package handler

import (
	"time"

	"github.com/gwtrade/tradepost/internal/domain"
)

// Wire shapes for the gateway. Field names follow the client protocol
// (camelCase); conversion to and from domain types happens here and
// nowhere else.

type pricePayload struct {
	Currency string  `json:"currency" validate:"required,oneof=plat ecto zkey arm bd"`
	Amount   float64 `json:"amount" validate:"gte=0"`
}

type weaponDetailsPayload struct {
	Attribute   string `json:"attribute"`
	Requirement int    `json:"requirement" validate:"gte=0,lte=13"`
	Inscription bool   `json:"inscription"`
	Oldschool   bool   `json:"oldschool"`
	Core        string `json:"core,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
}

type orderDetailsPayload struct {
	Dedicated *bool `json:"dedicated,omitempty"`
	Pre       bool  `json:"pre,omitempty"`
	PreNerf   bool  `json:"preNerf,omitempty"`
}

type orderPayload struct {
	Name          string                `json:"name" validate:"required"`
	OrderType     string                `json:"orderType" validate:"required,oneof=sell buy"`
	Quantity      int64                 `json:"quantity" validate:"gt=0"`
	Prices        []pricePayload        `json:"prices" validate:"required,min=1,dive"`
	Description   string                `json:"description,omitempty"`
	WeaponDetails *weaponDetailsPayload `json:"weaponDetails,omitempty"`
	OrderDetails  *orderDetailsPayload  `json:"orderDetails,omitempty"`
}

// publicId and lastRefresh appear in the server's own refresh and sync
// responses; clients may resubmit those verbatim, so both are accepted
// here and restamped by the registry rather than rejected.
type shopPayload struct {
	UUID           string         `json:"uuid,omitempty"`
	PublicID       string         `json:"publicId,omitempty"`
	Player         string         `json:"player" validate:"required"`
	LastRefresh    time.Time      `json:"lastRefresh,omitempty"`
	DaybreakOnline bool           `json:"daybreakOnline"`
	Items          []orderPayload `json:"items" validate:"required,dive"`
	Certified      []string       `json:"certified,omitempty"`
}

func (p *shopPayload) toDomain() *domain.Shop {
	items := make([]domain.Order, len(p.Items))
	for i, o := range p.Items {
		items[i] = o.toDomain()
	}
	// PublicID and LastRefresh stay server-owned and are not forwarded.
	return &domain.Shop{
		UUID:           p.UUID,
		Player:         p.Player,
		DaybreakOnline: p.DaybreakOnline,
		Items:          items,
		Certified:      p.Certified,
	}
}

func (p *orderPayload) toDomain() domain.Order {
	prices := make([]domain.Price, len(p.Prices))
	for i, pr := range p.Prices {
		prices[i] = domain.Price{Currency: domain.Currency(pr.Currency), Amount: pr.Amount}
	}
	o := domain.Order{
		Name:        p.Name,
		OrderType:   domain.OrderType(p.OrderType),
		Quantity:    p.Quantity,
		Prices:      prices,
		Description: p.Description,
	}
	if p.WeaponDetails != nil {
		o.WeaponDetails = &domain.WeaponDetails{
			Attribute:   p.WeaponDetails.Attribute,
			Requirement: p.WeaponDetails.Requirement,
			Inscription: p.WeaponDetails.Inscription,
			Oldschool:   p.WeaponDetails.Oldschool,
			Core:        p.WeaponDetails.Core,
			Prefix:      p.WeaponDetails.Prefix,
			Suffix:      p.WeaponDetails.Suffix,
		}
	}
	if p.OrderDetails != nil {
		o.OrderDetails = &domain.OrderDetails{
			Dedicated: p.OrderDetails.Dedicated,
			Pre:       p.OrderDetails.Pre,
			PreNerf:   p.OrderDetails.PreNerf,
		}
	}
	return o
}

type shopResponse struct {
	UUID           string         `json:"uuid,omitempty"`
	PublicID       string         `json:"publicId,omitempty"`
	Player         string         `json:"player"`
	DaybreakOnline bool           `json:"daybreakOnline"`
	LastRefresh    time.Time      `json:"lastRefresh"`
	Items          []orderPayload `json:"items"`
	Certified      []string       `json:"certified,omitempty"`
}

func buildShopResponse(s *domain.Shop) shopResponse {
	items := make([]orderPayload, len(s.Items))
	for i := range s.Items {
		items[i] = buildOrderPayload(&s.Items[i])
	}
	return shopResponse{
		UUID:           s.UUID,
		PublicID:       s.PublicID,
		Player:         s.Player,
		DaybreakOnline: s.DaybreakOnline,
		LastRefresh:    s.LastRefresh,
		Items:          items,
		Certified:      s.Certified,
	}
}

func buildOrderPayload(o *domain.Order) orderPayload {
	prices := make([]pricePayload, len(o.Prices))
	for i, p := range o.Prices {
		prices[i] = pricePayload{Currency: string(p.Currency), Amount: p.Amount}
	}
	out := orderPayload{
		Name:        o.Name,
		OrderType:   string(o.OrderType),
		Quantity:    o.Quantity,
		Prices:      prices,
		Description: o.Description,
	}
	if o.WeaponDetails != nil {
		out.WeaponDetails = &weaponDetailsPayload{
			Attribute:   o.WeaponDetails.Attribute,
			Requirement: o.WeaponDetails.Requirement,
			Inscription: o.WeaponDetails.Inscription,
			Oldschool:   o.WeaponDetails.Oldschool,
			Core:        o.WeaponDetails.Core,
			Prefix:      o.WeaponDetails.Prefix,
			Suffix:      o.WeaponDetails.Suffix,
		}
	}
	if o.OrderDetails != nil {
		out.OrderDetails = &orderDetailsPayload{
			Dedicated: o.OrderDetails.Dedicated,
			Pre:       o.OrderDetails.Pre,
			PreNerf:   o.OrderDetails.PreNerf,
		}
	}
	return out
}

type enrichedOrderResponse struct {
	orderPayload
	Player         string    `json:"player"`
	DaybreakOnline bool      `json:"daybreakOnline"`
	AuthCertified  bool      `json:"authCertified"`
	LastRefresh    time.Time `json:"lastRefresh"`
}

func buildEnrichedOrderResponse(o *domain.EnrichedOrder) enrichedOrderResponse {
	return enrichedOrderResponse{
		orderPayload:   buildOrderPayload(&o.Order),
		Player:         o.Player,
		DaybreakOnline: o.DaybreakOnline,
		AuthCertified:  o.AuthCertified,
		LastRefresh:    o.LastRefresh,
	}
}

type resultOrderResponse struct {
	enrichedOrderResponse
	Family     string `json:"family"`
	Category   string `json:"category"`
	PreSearing bool   `json:"preSearing,omitempty"`
	Dedicated  *bool  `json:"dedicated,omitempty"`
	PreNerf    bool   `json:"preNerf,omitempty"`
}

type priceRangeResponse struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type aggregationsResponse struct {
	ByFamily     map[string]int      `json:"byFamily"`
	ByCurrency   map[string]int      `json:"byCurrency"`
	SellOrders   int                 `json:"sellOrders"`
	BuyOrders    int                 `json:"buyOrders"`
	TotalSellers int                 `json:"totalSellers"`
	PriceRange   *priceRangeResponse `json:"priceRange"`
}

type searchResponse struct {
	Orders       []resultOrderResponse `json:"orders"`
	Total        int                   `json:"total"`
	Aggregations aggregationsResponse  `json:"aggregations"`
}

func buildSearchResponse(res *domain.SearchResult) searchResponse {
	orders := make([]resultOrderResponse, len(res.Orders))
	for i := range res.Orders {
		o := &res.Orders[i]
		orders[i] = resultOrderResponse{
			enrichedOrderResponse: buildEnrichedOrderResponse(&o.EnrichedOrder),
			Family:                o.Family,
			Category:              o.Category,
			PreSearing:            o.PreSearing,
			Dedicated:             o.Dedicated,
			PreNerf:               o.PreNerf,
		}
	}

	byCurrency := make(map[string]int, len(res.Aggregations.ByCurrency))
	for c, n := range res.Aggregations.ByCurrency {
		byCurrency[string(c)] = n
	}
	agg := aggregationsResponse{
		ByFamily:     res.Aggregations.ByFamily,
		ByCurrency:   byCurrency,
		SellOrders:   res.Aggregations.SellOrders,
		BuyOrders:    res.Aggregations.BuyOrders,
		TotalSellers: res.Aggregations.TotalSellers,
	}
	if pr := res.Aggregations.PriceRange; pr != nil {
		agg.PriceRange = &priceRangeResponse{Min: pr.Min, Max: pr.Max, Currency: string(pr.Currency)}
	}

	return searchResponse{Orders: orders, Total: res.Total, Aggregations: agg}
}

type searchRequest struct {
	Query    string `json:"query,omitempty"`
	Family   string `json:"family,omitempty"`
	Category string `json:"category,omitempty"`

	OrderType *string `json:"orderType,omitempty" validate:"omitempty,oneof=sell buy"`

	Attribute   string `json:"attribute,omitempty"`
	ReqMin      *int   `json:"reqMin,omitempty" validate:"omitempty,gte=0,lte=13"`
	ReqMax      *int   `json:"reqMax,omitempty" validate:"omitempty,gte=0,lte=13"`
	Inscription *bool  `json:"inscription,omitempty"`
	Oldschool   bool   `json:"oldschool,omitempty"`
	Core        string `json:"core,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
	Suffix      string `json:"suffix,omitempty"`

	PreSearing    *bool `json:"preSearing,omitempty"`
	MiniDedicated *bool `json:"miniDedicated,omitempty"`

	Currency     *string  `json:"currency,omitempty" validate:"omitempty,oneof=plat ecto zkey arm bd"`
	PriceMin     *float64 `json:"priceMin,omitempty" validate:"omitempty,gte=0"`
	PriceMax     *float64 `json:"priceMax,omitempty" validate:"omitempty,gte=0"`
	PriceEachMin *float64 `json:"priceEachMin,omitempty" validate:"omitempty,gte=0"`
	PriceEachMax *float64 `json:"priceEachMax,omitempty" validate:"omitempty,gte=0"`

	TimeRange     string `json:"timeRange,omitempty" validate:"omitempty,oneof=online today week all"`
	OnlineOnly    bool   `json:"onlineOnly,omitempty"`
	CertifiedOnly bool   `json:"certifiedOnly,omitempty"`

	Limit  int `json:"limit,omitempty" validate:"gte=0"`
	Offset int `json:"offset,omitempty" validate:"gte=0"`

	SortBy    string `json:"sortBy,omitempty" validate:"omitempty,oneof=time price priceEach name quantity"`
	SortOrder string `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
}

func (r *searchRequest) toDomain() domain.SearchFilter {
	f := domain.SearchFilter{
		Query:         r.Query,
		Family:        r.Family,
		Category:      r.Category,
		Attribute:     r.Attribute,
		ReqMin:        r.ReqMin,
		ReqMax:        r.ReqMax,
		Inscription:   r.Inscription,
		Oldschool:     r.Oldschool,
		Core:          r.Core,
		Prefix:        r.Prefix,
		Suffix:        r.Suffix,
		PreSearing:    r.PreSearing,
		MiniDedicated: r.MiniDedicated,
		PriceMin:      r.PriceMin,
		PriceMax:      r.PriceMax,
		PriceEachMin:  r.PriceEachMin,
		PriceEachMax:  r.PriceEachMax,
		TimeRange:     domain.TimeRange(r.TimeRange),
		OnlineOnly:    r.OnlineOnly,
		CertifiedOnly: r.CertifiedOnly,
		Limit:         r.Limit,
		Offset:        r.Offset,
		SortBy:        domain.SortBy(r.SortBy),
		SortOrder:     domain.SortOrder(r.SortOrder),
	}
	if r.OrderType != nil {
		ot := domain.OrderType(*r.OrderType)
		f.OrderType = &ot
	}
	if r.Currency != nil {
		c := domain.Currency(*r.Currency)
		f.Currency = &c
	}
	return f
}

type countsResponse struct {
	SellOnline int `json:"sellOnline"`
	BuyOnline  int `json:"buyOnline"`
	SellToday  int `json:"sellToday"`
	BuyToday   int `json:"buyToday"`
	SellWeek   int `json:"sellWeek"`
	BuyWeek    int `json:"buyWeek"`
}

func buildCountsResponse(c domain.OrderCounts) countsResponse {
	return countsResponse{
		SellOnline: c.SellOnline,
		BuyOnline:  c.BuyOnline,
		SellToday:  c.SellToday,
		BuyToday:   c.BuyToday,
		SellWeek:   c.SellWeek,
		BuyWeek:    c.BuyWeek,
	}
}

func buildCountsMapResponse(m map[string]domain.OrderCounts) map[string]countsResponse {
	out := make(map[string]countsResponse, len(m))
	for name, c := range m {
		out[name] = buildCountsResponse(c)
	}
	return out
}

type recencyEntryResponse struct {
	Name        string         `json:"name"`
	OrderType   string         `json:"orderType"`
	Quantity    int64          `json:"quantity"`
	UnitPrices  []pricePayload `json:"unitPrices"`
	LastRefresh time.Time      `json:"lastRefresh"`
}

func buildRecencyResponse(entries []domain.RecencyEntry) []recencyEntryResponse {
	out := make([]recencyEntryResponse, len(entries))
	for i, e := range entries {
		prices := make([]pricePayload, len(e.UnitPrices))
		for j, p := range e.UnitPrices {
			prices[j] = pricePayload{Currency: string(p.Currency), Amount: p.Amount}
		}
		out[i] = recencyEntryResponse{
			Name:        e.Name,
			OrderType:   string(e.OrderType),
			Quantity:    e.Quantity,
			UnitPrices:  prices,
			LastRefresh: e.LastRefresh,
		}
	}
	return out
}
