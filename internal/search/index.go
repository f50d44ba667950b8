// Package search implements a forward-tokenized inverted index over
// catalog item names. Each word of a name is indexed under every one of
// its prefixes, so "fiery" is found by "f", "fie" or "fiery". Built
// once at startup from the static catalog; never from live orders.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/gwtrade/tradepost/internal/catalog"
)

// Index answers prefix-style name lookups with bounded result counts.
type Index struct {
	names    []string         // catalog order
	postings map[string][]int // token prefix → ascending item ids
}

// NewIndex builds the index from the catalog's items in catalog order.
func NewIndex(cat *catalog.Catalog) *Index {
	idx := &Index{postings: make(map[string][]int)}
	for _, item := range cat.All() {
		id := len(idx.names)
		idx.names = append(idx.names, item.Name)

		seen := make(map[string]bool)
		for _, token := range Tokenize(item.Name) {
			for i := 1; i <= len(token); i++ {
				prefix := token[:i]
				if seen[prefix] {
					continue
				}
				seen[prefix] = true
				idx.postings[prefix] = append(idx.postings[prefix], id)
			}
		}
	}
	return idx
}

// Tokenize lowercases s and splits it into alphanumeric word tokens.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Query returns up to limit item names matching every token of text as
// a word prefix. Names whose tokens exactly equal more of the query
// tokens rank first; ties keep catalog order. A blank query returns
// nothing; it carries no ranking signal, and callers are expected to
// fall back to the full name set instead.
func (idx *Index) Query(text string, limit int) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 || limit <= 0 {
		return nil
	}

	// Intersect posting lists across tokens; all lists are ascending.
	ids := idx.postings[tokens[0]]
	for _, token := range tokens[1:] {
		ids = intersect(ids, idx.postings[token])
		if len(ids) == 0 {
			return nil
		}
	}

	type scored struct {
		id    int
		exact int
	}
	results := make([]scored, 0, len(ids))
	for _, id := range ids {
		nameTokens := Tokenize(idx.names[id])
		exact := 0
		for _, qt := range tokens {
			for _, nt := range nameTokens {
				if nt == qt {
					exact++
					break
				}
			}
		}
		results = append(results, scored{id: id, exact: exact})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].exact != results[j].exact {
			return results[i].exact > results[j].exact
		}
		return results[i].id < results[j].id
	})

	if len(results) > limit {
		results = results[:limit]
	}
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = idx.names[r.id]
	}
	return names
}

// intersect merges two ascending id lists keeping common elements.
func intersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
