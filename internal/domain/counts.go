package domain

import "time"

// OrderCounts holds the six freshness-bucketed counters for one key
// (an item name, a category, a family, or the global total).
//
// The buckets are evaluated independently, each against its own
// threshold: an order 5 minutes old increments Online, Today, and Week
// all at once, and an order 2 days old still increments Week. They are
// cumulative counters, not exclusive bands.
type OrderCounts struct {
	SellOnline int
	BuyOnline  int
	SellToday  int
	BuyToday   int
	SellWeek   int
	BuyWeek    int
}

// Tally applies one order's contribution given its age.
func (c *OrderCounts) Tally(orderType OrderType, age time.Duration) {
	sell := orderType == OrderTypeSell
	if age < ActiveWindow {
		if sell {
			c.SellOnline++
		} else {
			c.BuyOnline++
		}
	}
	if age < TodayWindow {
		if sell {
			c.SellToday++
		} else {
			c.BuyToday++
		}
	}
	if sell {
		c.SellWeek++
	} else {
		c.BuyWeek++
	}
}

// Add sums another counter into c. Rollups per category, family and
// global are plain sums of their children's same-named buckets.
func (c *OrderCounts) Add(other OrderCounts) {
	c.SellOnline += other.SellOnline
	c.BuyOnline += other.BuyOnline
	c.SellToday += other.SellToday
	c.BuyToday += other.BuyToday
	c.SellWeek += other.SellWeek
	c.BuyWeek += other.BuyWeek
}

// IsZero reports whether all six buckets are zero.
func (c OrderCounts) IsZero() bool {
	return c == OrderCounts{}
}
