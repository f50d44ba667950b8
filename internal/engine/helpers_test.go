package engine

import (
	"time"

	"github.com/gwtrade/tradepost/internal/catalog"
	"github.com/gwtrade/tradepost/internal/domain"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// testCatalog covers a weapon category, a miniature, a pre-searing
// category and a material.
func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Item{
		{Name: "Fiery Dragon Sword", Family: "weapon", Category: "Rare Swords"},
		{Name: "Fellblade", Family: "weapon", Category: "Rare Swords"},
		{Name: "Sephis Axe", Family: "weapon", Category: "Axes"},
		{Name: "Glob of Ectoplasm", Family: "material", Category: "Rare Materials"},
		{Name: "Miniature Charr Shaman", Family: "miniature", Category: "Minipets"},
		{Name: "Charr Salvage Kit", Family: "special", Category: "Pre-Searing"},
	})
}

func sell(name string, qty int64, plat float64) domain.Order {
	return domain.Order{
		Name:      name,
		OrderType: domain.OrderTypeSell,
		Quantity:  qty,
		Prices:    []domain.Price{{Currency: domain.CurrencyPlat, Amount: plat}},
	}
}

func buy(name string, qty int64, plat float64) domain.Order {
	o := sell(name, qty, plat)
	o.OrderType = domain.OrderTypeBuy
	return o
}

func shopWith(uuid, player string, refreshedAt time.Time, items ...domain.Order) *domain.Shop {
	return &domain.Shop{
		UUID:        uuid,
		Player:      player,
		LastRefresh: refreshedAt,
		Items:       items,
	}
}

// buildSnapshot rebuilds a snapshot where every given shop is active.
func buildSnapshot(shops ...*domain.Shop) *Snapshot {
	return NewFullRebuilder(testCatalog()).Rebuild(shops, shops, testNow)
}
