package domain

import "time"

// OrderType distinguishes sell listings from buy listings.
type OrderType string

const (
	OrderTypeSell OrderType = "sell"
	OrderTypeBuy  OrderType = "buy"
)

// Currency enumerates the accepted trade currencies.
type Currency string

const (
	CurrencyPlat Currency = "plat"
	CurrencyEcto Currency = "ecto"
	CurrencyZkey Currency = "zkey"
	CurrencyArm  Currency = "arm"
	CurrencyBD   Currency = "bd"
)

// ValidCurrency reports whether c is one of the accepted currencies.
func ValidCurrency(c Currency) bool {
	switch c {
	case CurrencyPlat, CurrencyEcto, CurrencyZkey, CurrencyArm, CurrencyBD:
		return true
	}
	return false
}

// Price is one asking/offering price on an order. An order may carry
// several prices in different currencies.
type Price struct {
	Currency Currency `json:"currency"`
	Amount   float64  `json:"amount"`
}

// WeaponDetails carries the weapon-specific attributes of a listing.
type WeaponDetails struct {
	Attribute   string `json:"attribute"`
	Requirement int    `json:"requirement"` // 0-13
	Inscription bool   `json:"inscription"`
	Oldschool   bool   `json:"oldschool"`
	Core        string `json:"core,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
}

// OrderDetails carries flags that apply to special item classes.
// Dedicated is tri-state: nil means the submitter didn't say, and the
// status may still be inferred from the description text.
type OrderDetails struct {
	Dedicated *bool `json:"dedicated,omitempty"`
	Pre       bool  `json:"pre,omitempty"`
	PreNerf   bool  `json:"preNerf,omitempty"`
}

// Order is a single listing inside a shop: one item, one direction,
// a quantity and one or more prices. Orders have no identity of their
// own; they live and die with their shop's item list.
type Order struct {
	Name          string         `json:"name"`
	OrderType     OrderType      `json:"orderType"`
	Quantity      int64          `json:"quantity"`
	Prices        []Price        `json:"prices"`
	Description   string         `json:"description,omitempty"`
	WeaponDetails *WeaponDetails `json:"weaponDetails,omitempty"`
	OrderDetails  *OrderDetails  `json:"orderDetails,omitempty"`
}

// EffectiveQuantity returns the order quantity, defaulting to 1 when the
// submitter left it zero, so per-unit price math never divides by zero.
func (o *Order) EffectiveQuantity() int64 {
	if o.Quantity <= 0 {
		return 1
	}
	return o.Quantity
}

// EnrichedOrder is an order projected out of its shop with the shop's
// current state denormalized onto it. Built fresh on every rebuild;
// the underlying Order is never mutated.
type EnrichedOrder struct {
	Order
	Player         string
	DaybreakOnline bool
	AuthCertified  bool
	LastRefresh    time.Time
}

// Age returns how long ago the order's shop was last refreshed.
func (o *EnrichedOrder) Age(now time.Time) time.Duration {
	return now.Sub(o.LastRefresh)
}
