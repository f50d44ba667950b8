package domain

import (
	"testing"
	"time"
)

func TestShop_Active(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastRefresh time.Time
		want        bool
	}{
		{"just refreshed", now, true},
		{"14 minutes ago", now.Add(-14 * time.Minute), true},
		{"exactly at the window", now.Add(-ActiveWindow), false},
		{"an hour ago", now.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Shop{LastRefresh: tt.lastRefresh}
			if got := s.Active(now, ActiveWindow); got != tt.want {
				t.Fatalf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShop_Merge_PreservesAbsentFields(t *testing.T) {
	stored := &Shop{
		UUID:      "abc",
		PublicID:  "pub",
		Player:    "Alice",
		Items:     []Order{{Name: "Ecto"}},
		Certified: []string{"Alice"},
	}

	stored.Merge(&Shop{
		Player: "Alice II",
		Items:  []Order{{Name: "Shard"}},
	})

	if stored.Player != "Alice II" {
		t.Fatalf("player not replaced: %q", stored.Player)
	}
	if len(stored.Items) != 1 || stored.Items[0].Name != "Shard" {
		t.Fatalf("items not replaced: %+v", stored.Items)
	}
	if stored.PublicID != "pub" {
		t.Fatalf("public id must survive a merge, got %q", stored.PublicID)
	}
	if len(stored.Certified) != 1 || stored.Certified[0] != "Alice" {
		t.Fatalf("certified list must survive a merge without one, got %+v", stored.Certified)
	}
}

func TestShop_PublicView_OmitsUUID(t *testing.T) {
	s := &Shop{
		UUID:     "secret",
		PublicID: "pub",
		Player:   "Bob",
		Items:    []Order{{Name: "Ecto"}},
	}
	v := s.PublicView()
	if v.UUID != "" {
		t.Fatalf("public view leaked the uuid: %q", v.UUID)
	}
	if v.PublicID != "pub" || v.Player != "Bob" || len(v.Items) != 1 {
		t.Fatalf("public view lost fields: %+v", v)
	}
}

func TestOrder_EffectiveQuantity(t *testing.T) {
	o := &Order{Quantity: 0}
	if got := o.EffectiveQuantity(); got != 1 {
		t.Fatalf("zero quantity should default to 1, got %d", got)
	}
	o.Quantity = 7
	if got := o.EffectiveQuantity(); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestSearchFilter_Normalize(t *testing.T) {
	var f SearchFilter
	f.Normalize()
	if f.Limit != DefaultSearchLimit || f.Offset != 0 {
		t.Fatalf("defaults not applied: limit=%d offset=%d", f.Limit, f.Offset)
	}
	if f.SortBy != SortByTime || f.SortOrder != SortDesc {
		t.Fatalf("sort defaults not applied: %v %v", f.SortBy, f.SortOrder)
	}
	if f.TimeRange != TimeRangeAll {
		t.Fatalf("time range default not applied: %v", f.TimeRange)
	}

	f = SearchFilter{Limit: 500, Offset: -3}
	f.Normalize()
	if f.Limit != MaxSearchLimit {
		t.Fatalf("limit not clamped: %d", f.Limit)
	}
	if f.Offset != 0 {
		t.Fatalf("offset not clamped: %d", f.Offset)
	}
}
