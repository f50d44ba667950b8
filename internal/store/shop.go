// Package store holds the authoritative in-memory shop state. Shops are
// never hard-deleted within a process lifetime; expired ones stay around
// for a later refresh.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/gwtrade/tradepost/internal/domain"
)

// shopEntry orders shops by lastRefresh descending, then uuid, inside
// the btree. Min() is the most recently refreshed shop.
type shopEntry struct {
	lastRefresh time.Time
	uuid        string
}

func entryLess(a, b shopEntry) bool {
	if !a.lastRefresh.Equal(b.lastRefresh) {
		return a.lastRefresh.After(b.lastRefresh)
	}
	return a.uuid < b.uuid
}

// ShopRegistry is the single source of truth for shop existence and
// freshness. It owns the shop lifecycle: create on first refresh,
// merge on subsequent refreshes, demote on close or timeout.
type ShopRegistry struct {
	mu        sync.RWMutex
	shops     map[string]*domain.Shop
	active    map[string]struct{}
	publicIDs map[string]string // public id → uuid
	certified map[string]string // player name → uuid
	byRefresh *btree.BTreeG[shopEntry]
	dirty     map[string]struct{} // item names touched since last rebuild
}

// NewShopRegistry creates an empty registry.
func NewShopRegistry() *ShopRegistry {
	const degree = 32
	return &ShopRegistry{
		shops:     make(map[string]*domain.Shop),
		active:    make(map[string]struct{}),
		publicIDs: make(map[string]string),
		certified: make(map[string]string),
		byRefresh: btree.NewG[shopEntry](degree, entryLess),
		dirty:     make(map[string]struct{}),
	}
}

// newID mints a short random identifier for shops and public links.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// validateShape rejects structurally broken payloads before any state
// is touched. The registry trusts field contents beyond this.
func validateShape(in *domain.Shop) error {
	if in == nil {
		return fmt.Errorf("%w: missing shop payload", domain.ErrInvalidShop)
	}
	if in.Player == "" {
		return fmt.Errorf("%w: player name is required", domain.ErrInvalidShop)
	}
	if in.Items == nil {
		return fmt.Errorf("%w: items must be a list", domain.ErrInvalidShop)
	}
	for i := range in.Items {
		o := &in.Items[i]
		if o.Name == "" {
			return fmt.Errorf("%w: item %d has no name", domain.ErrInvalidShop, i)
		}
		if o.OrderType != domain.OrderTypeSell && o.OrderType != domain.OrderTypeBuy {
			return fmt.Errorf("%w: item %d has invalid order type %q", domain.ErrInvalidShop, i, o.OrderType)
		}
		if o.Quantity <= 0 {
			return fmt.Errorf("%w: item %d has non-positive quantity", domain.ErrInvalidShop, i)
		}
		if len(o.Prices) == 0 {
			return fmt.Errorf("%w: item %d has no prices", domain.ErrInvalidShop, i)
		}
		for _, p := range o.Prices {
			if !domain.ValidCurrency(p.Currency) {
				return fmt.Errorf("%w: item %d has unknown currency %q", domain.ErrInvalidShop, i, p.Currency)
			}
		}
	}
	return nil
}

// Upsert validates the payload, enforces player-name certification,
// mints ids for new shops, shallow-merges the payload onto any stored
// record, stamps lastRefresh and marks the shop active. Item names of
// the new list are flagged dirty for re-aggregation. Returns a
// detached copy of the merged record; later refreshes mutate the
// stored one in place and must never show through an earlier echo.
func (r *ShopRegistry) Upsert(in *domain.Shop, now time.Time) (*domain.Shop, error) {
	if err := validateShape(in); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.certified[in.Player]; ok && owner != in.UUID {
		return nil, domain.ErrPlayerNameConflict
	}

	uid := in.UUID
	if uid == "" {
		uid = newID()
	}

	shop, exists := r.shops[uid]
	if exists {
		r.byRefresh.Delete(shopEntry{lastRefresh: shop.LastRefresh, uuid: uid})
		shop.Merge(in)
	} else {
		shop = &domain.Shop{
			UUID:           uid,
			Player:         in.Player,
			DaybreakOnline: in.DaybreakOnline,
			Items:          in.Items,
			Certified:      in.Certified,
			PublicID:       in.PublicID,
		}
		r.shops[uid] = shop
	}
	if shop.PublicID == "" {
		shop.PublicID = newID()
	}
	r.publicIDs[shop.PublicID] = uid
	for _, player := range shop.Certified {
		r.certified[player] = uid
	}

	shop.LastRefresh = now
	r.byRefresh.ReplaceOrInsert(shopEntry{lastRefresh: now, uuid: uid})
	r.active[uid] = struct{}{}
	for _, o := range shop.Items {
		r.dirty[o.Name] = struct{}{}
	}

	return shop.Clone(), nil
}

// Close pushes the shop's lastRefresh back past the active window so it
// immediately leaves the active set. Reports whether anything changed.
func (r *ShopRegistry) Close(uid string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	shop, ok := r.shops[uid]
	if !ok {
		return false
	}
	r.byRefresh.Delete(shopEntry{lastRefresh: shop.LastRefresh, uuid: uid})
	shop.LastRefresh = now.Add(-domain.ActiveWindow)
	r.byRefresh.ReplaceOrInsert(shopEntry{lastRefresh: shop.LastRefresh, uuid: uid})

	if _, wasActive := r.active[uid]; !wasActive {
		return false
	}
	delete(r.active, uid)
	for _, o := range shop.Items {
		r.dirty[o.Name] = struct{}{}
	}
	return true
}

// ExpireStale demotes every active shop whose lastRefresh has fallen
// outside the active window. Reports whether anything changed.
func (r *ShopRegistry) ExpireStale(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for uid := range r.active {
		shop := r.shops[uid]
		if shop.Active(now, domain.ActiveWindow) {
			continue
		}
		delete(r.active, uid)
		for _, o := range shop.Items {
			r.dirty[o.Name] = struct{}{}
		}
		changed = true
	}
	return changed
}

// Get returns a detached copy of the shop for the given uuid.
func (r *ShopRegistry) Get(uid string) (*domain.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shop, ok := r.shops[uid]
	if !ok {
		return nil, domain.ErrShopNotFound
	}
	return shop.Clone(), nil
}

// GetByPublicID resolves a public link id to its shop.
func (r *ShopRegistry) GetByPublicID(publicID string) (*domain.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uid, ok := r.publicIDs[publicID]
	if !ok {
		return nil, domain.ErrShopNotFound
	}
	shop, ok := r.shops[uid]
	if !ok {
		return nil, domain.ErrShopNotFound
	}
	return shop.Clone(), nil
}

// NewerThan returns a copy of the shop when the stored record is
// fresher than the client's, nil otherwise. Used by reconnecting
// clients.
func (r *ShopRegistry) NewerThan(uid string, since time.Time) *domain.Shop {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shop, ok := r.shops[uid]
	if !ok || !shop.LastRefresh.After(since) {
		return nil
	}
	return shop.Clone()
}

// All returns every registered shop ordered by lastRefresh descending.
func (r *ShopRegistry) All() []*domain.Shop {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shops := make([]*domain.Shop, 0, len(r.shops))
	r.byRefresh.Ascend(func(e shopEntry) bool {
		shops = append(shops, r.shops[e.uuid])
		return true
	})
	return shops
}

// Active returns the active shops ordered by lastRefresh descending.
func (r *ShopRegistry) Active() []*domain.Shop {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shops := make([]*domain.Shop, 0, len(r.active))
	r.byRefresh.Ascend(func(e shopEntry) bool {
		if _, ok := r.active[e.uuid]; ok {
			shops = append(shops, r.shops[e.uuid])
		}
		return true
	})
	return shops
}

// IsActive reports active-set membership for a uuid.
func (r *ShopRegistry) IsActive(uid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.active[uid]
	return ok
}

// TakeDirty returns the item names touched since the last call and
// clears the set.
func (r *ShopRegistry) TakeDirty() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.dirty))
	for name := range r.dirty {
		names = append(names, name)
	}
	r.dirty = make(map[string]struct{})
	return names
}

// Len returns the number of registered shops, active or not.
func (r *ShopRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.shops)
}

// ActiveCount returns the number of active shops.
func (r *ShopRegistry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.active)
}
