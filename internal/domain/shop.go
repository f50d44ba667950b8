package domain

import (
	"slices"
	"time"
)

// ActiveWindow is the liveness threshold: a shop not refreshed within
// it drops out of every aggregated view.
const ActiveWindow = 15 * time.Minute

// TodayWindow is the threshold for the "today" freshness bucket.
const TodayWindow = 12 * time.Hour

// Shop is a player's set of listings. The uuid is server-assigned on
// first registration and immutable afterwards; the player name may
// change across refreshes.
type Shop struct {
	UUID           string    `json:"uuid,omitempty"`
	PublicID       string    `json:"publicId,omitempty"`
	Player         string    `json:"player"`
	LastRefresh    time.Time `json:"lastRefresh"`
	DaybreakOnline bool      `json:"daybreakOnline"`
	Items          []Order   `json:"items"`
	Certified      []string  `json:"certified,omitempty"`
}

// Active reports whether the shop was refreshed within the active window.
func (s *Shop) Active(now time.Time, window time.Duration) bool {
	return now.Sub(s.LastRefresh) < window
}

// IsCertified reports whether the given player name is certified to
// this shop.
func (s *Shop) IsCertified(player string) bool {
	return slices.Contains(s.Certified, player)
}

// Merge overlays the incoming refresh payload onto the stored record.
// Fields absent from the payload are preserved; this is a shallow merge,
// not a replace.
func (s *Shop) Merge(in *Shop) {
	s.Player = in.Player
	s.Items = in.Items
	s.DaybreakOnline = in.DaybreakOnline
	if len(in.Certified) > 0 {
		s.Certified = in.Certified
	}
	if in.PublicID != "" {
		s.PublicID = in.PublicID
	}
}

// Clone returns a copy safe to hand out after the owning lock is
// released. Items and Certified get fresh slices; nested prices and
// details are write-once after decode and may be shared.
func (s *Shop) Clone() *Shop {
	out := *s
	out.Items = slices.Clone(s.Items)
	out.Certified = slices.Clone(s.Certified)
	return &out
}

// PublicView returns the projection of the shop safe to hand out via a
// public link: everything except the owner uuid.
func (s *Shop) PublicView() *Shop {
	return &Shop{
		PublicID:       s.PublicID,
		Player:         s.Player,
		LastRefresh:    s.LastRefresh,
		DaybreakOnline: s.DaybreakOnline,
		Items:          s.Items,
		Certified:      s.Certified,
	}
}
