// Package catalog provides the static item reference data: the mapping
// from item name to its family/category taxonomy. It is loaded once at
// startup and read-only afterwards.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Item is one catalog entry. Family is the top-level taxonomy
// (weapon, upgrade, consumable, ...), Category the sub-taxonomy within
// it (e.g. "Rare Swords").
type Item struct {
	Name     string `json:"name"`
	Family   string `json:"family"`
	Category string `json:"category"`
	Rarity   string `json:"rarity,omitempty"`
	Level    int    `json:"level,omitempty"`
}

// Catalog is an immutable name → Item lookup that also preserves load
// order, used by the text index for deterministic tie-breaking.
type Catalog struct {
	byName  map[string]*Item
	ordered []*Item
}

// New builds a catalog from a flat item list. Duplicate names keep the
// first occurrence.
func New(items []Item) *Catalog {
	c := &Catalog{byName: make(map[string]*Item, len(items))}
	for i := range items {
		it := items[i]
		if _, ok := c.byName[it.Name]; ok {
			continue
		}
		c.byName[it.Name] = &it
		c.ordered = append(c.ordered, &it)
	}
	return c
}

// categoryFile is the on-disk shape of one family file: a list of
// categories, each holding its items.
type categoryFile []struct {
	Type  string `json:"type"`
	Items []Item `json:"items"`
}

// Load reads every *.json file in dir. The file name (without
// extension) is the family; each file lists categories with their
// items. Files are read in lexical order so duplicate names resolve
// deterministically.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var items []Item
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read catalog file %s: %w", name, err)
		}
		var categories categoryFile
		if err := json.Unmarshal(data, &categories); err != nil {
			return nil, fmt.Errorf("parse catalog file %s: %w", name, err)
		}
		family := strings.TrimSuffix(name, ".json")
		for _, cat := range categories {
			for _, it := range cat.Items {
				it.Family = family
				it.Category = cat.Type
				items = append(items, it)
			}
		}
	}

	return New(items), nil
}

// Lookup returns the catalog entry for name, if any.
func (c *Catalog) Lookup(name string) (*Item, bool) {
	it, ok := c.byName[name]
	return it, ok
}

// LookupAll returns the entries for the given names, skipping unknown
// ones.
func (c *Catalog) LookupAll(names []string) []*Item {
	items := make([]*Item, 0, len(names))
	for _, name := range names {
		if it, ok := c.byName[name]; ok {
			items = append(items, it)
		}
	}
	return items
}

// All returns every entry in load order. Callers must not mutate the
// returned items.
func (c *Catalog) All() []*Item {
	return c.ordered
}

// Len returns the number of distinct items.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
