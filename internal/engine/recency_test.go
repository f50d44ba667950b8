package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/gwtrade/tradepost/internal/catalog"
	"github.com/gwtrade/tradepost/internal/domain"
)

func TestBuildRecencyFeed_KeysByCategoryFamilyAndAll(t *testing.T) {
	shop := shopWith("s1", "Alice", testNow, sell("Fellblade", 1, 100))
	feed := BuildRecencyFeed([]*domain.Shop{shop}, testCatalog())

	for _, key := range []string{"Rare Swords", "weapon", RecencyAllKey} {
		entries := feed.Entries(key)
		if len(entries) != 1 || entries[0].Name != "Fellblade" {
			t.Fatalf("key %q: got %+v", key, entries)
		}
	}
}

func TestBuildRecencyFeed_UnknownItemsSkipped(t *testing.T) {
	shop := shopWith("s1", "Alice", testNow, sell("Not In Catalog", 1, 100))
	feed := BuildRecencyFeed([]*domain.Shop{shop}, testCatalog())
	if got := feed.Entries(RecencyAllKey); len(got) != 0 {
		t.Fatalf("unknown item entered the feed: %+v", got)
	}
}

func TestBuildRecencyFeed_UnitPrices(t *testing.T) {
	shop := shopWith("s1", "Alice", testNow, sell("Glob of Ectoplasm", 10, 80))
	feed := BuildRecencyFeed([]*domain.Shop{shop}, testCatalog())

	entries := feed.Entries("material")
	if len(entries) != 1 {
		t.Fatalf("got %+v", entries)
	}
	if got := entries[0].UnitPrices[0].Amount; got != 8 {
		t.Fatalf("unit price = %v, want 8", got)
	}
}

func TestBuildRecencyFeed_MergesDuplicatePairs(t *testing.T) {
	// Same (name, orderType) from two shops: quantities accumulate,
	// and the lower per-unit price per currency wins.
	newer := shopWith("s1", "Alice", testNow, sell("Glob of Ectoplasm", 10, 100))  // 10/unit
	older := shopWith("s2", "Bob", testNow.Add(-time.Hour), sell("Glob of Ectoplasm", 5, 25)) // 5/unit

	feed := BuildRecencyFeed([]*domain.Shop{newer, older}, testCatalog())

	entries := feed.Entries("material")
	if len(entries) != 1 {
		t.Fatalf("expected merged entry, got %+v", entries)
	}
	e := entries[0]
	if e.Quantity != 15 {
		t.Fatalf("quantity = %d, want 15", e.Quantity)
	}
	if len(e.UnitPrices) != 1 || e.UnitPrices[0].Amount != 5 {
		t.Fatalf("lower unit price must win, got %+v", e.UnitPrices)
	}
	// The first (most recent) occurrence sets the timestamp.
	if !e.LastRefresh.Equal(testNow) {
		t.Fatalf("lastRefresh = %v, want %v", e.LastRefresh, testNow)
	}
}

func TestBuildRecencyFeed_OppositeDirectionsStayDistinct(t *testing.T) {
	shop := shopWith("s1", "Alice", testNow,
		sell("Glob of Ectoplasm", 1, 10),
		buy("Glob of Ectoplasm", 1, 9),
	)
	feed := BuildRecencyFeed([]*domain.Shop{shop}, testCatalog())
	if got := feed.Entries("material"); len(got) != 2 {
		t.Fatalf("sell and buy must be distinct entries, got %+v", got)
	}
}

func TestBuildRecencyFeed_CapDropsNewDistinctButStillMerges(t *testing.T) {
	// 101 distinct pairs into one family bucket: the 101st is dropped,
	// the first 100 retained; a duplicate of pair #5 still merges.
	cat := bigCatalog(101)

	shops := make([]*domain.Shop, 0, 102)
	for i := 0; i < 101; i++ {
		shops = append(shops, shopWith(fmt.Sprintf("s%d", i), fmt.Sprintf("P%d", i),
			testNow.Add(-time.Duration(i)*time.Second),
			sell(fmt.Sprintf("Item %03d", i), 1, 10)))
	}
	// Oldest shop duplicates pair #5 after the feed is full.
	shops = append(shops, shopWith("dup", "Dup", testNow.Add(-time.Hour),
		sell("Item 005", 3, 30)))

	feed := BuildRecencyFeed(shops, cat)

	entries := feed.Entries("stuff")
	if len(entries) != RecencyCap {
		t.Fatalf("expected %d entries, got %d", RecencyCap, len(entries))
	}
	for _, e := range entries {
		if e.Name == "Item 100" {
			t.Fatal("the 101st distinct pair must have been dropped")
		}
	}

	var got *domain.RecencyEntry
	for i := range entries {
		if entries[i].Name == "Item 005" {
			got = &entries[i]
			break
		}
	}
	if got == nil {
		t.Fatal("pair #5 missing")
	}
	if got.Quantity != 4 {
		t.Fatalf("duplicate must merge into a full feed: quantity = %d, want 4", got.Quantity)
	}
}

func bigCatalog(n int) *catalog.Catalog {
	items := make([]catalog.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, catalog.Item{
			Name:     fmt.Sprintf("Item %03d", i),
			Family:   "stuff",
			Category: "Stuff Category",
		})
	}
	return catalog.New(items)
}
