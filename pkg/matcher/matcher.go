// Package matcher binds source records to target items by external identifier.
//
// Matching is done in one pass per scheme, in priority order: every target
// item is checked against the primary scheme before any item is checked
// against the secondary one. A record with a correct primary identifier is
// therefore never bound through a coincidental secondary collision.
// Titles are never consulted.
package matcher

import (
	"github.com/ellisd4/tagsync/pkg/catalogs"
)

// Result is a successful match.
type Result struct {
	// Item is the matched target item.
	Item catalogs.TargetItem
	// Position is the item's index in the slice it was matched from.
	Position int
	// Scheme is the identifier scheme that produced the match.
	Scheme catalogs.Scheme
}

// Match scans items in input order and returns the first item whose
// identifier equals the record's identifier for the same scheme. It returns
// false when the record has no usable identifier or nothing matches.
func Match(record catalogs.SourceRecord, items []catalogs.TargetItem, schemes []catalogs.Scheme) (Result, bool) {
	if len(schemes) == 0 {
		schemes = catalogs.DefaultSchemes()
	}
	for _, scheme := range schemes {
		want, ok := record.ExternalIDs.Get(scheme)
		if !ok {
			continue
		}
		for i, item := range items {
			if got, ok := item.ExternalIDs.Get(scheme); ok && got == want {
				return Result{Item: item, Position: i, Scheme: scheme.Normalize()}, true
			}
		}
	}
	return Result{}, false
}

type key struct {
	scheme catalogs.Scheme
	id     string
}

// Index is a lookup table over a target snapshot keyed by (scheme, normalized id).
// It keeps the first item in input order for each key, so Index.Match and
// Match return the same result for the same inputs.
type Index struct {
	schemes []catalogs.Scheme
	items   []catalogs.TargetItem
	byKey   map[key]int
}

// NewIndex builds an index over items for the given schemes.
func NewIndex(items []catalogs.TargetItem, schemes []catalogs.Scheme) *Index {
	if len(schemes) == 0 {
		schemes = catalogs.DefaultSchemes()
	}
	normalized := make([]catalogs.Scheme, len(schemes))
	for i, s := range schemes {
		normalized[i] = s.Normalize()
	}

	ix := &Index{
		schemes: normalized,
		items:   items,
		byKey:   make(map[key]int, len(items)*len(normalized)),
	}
	for pos, item := range items {
		for _, scheme := range normalized {
			id, ok := item.ExternalIDs.Get(scheme)
			if !ok {
				continue
			}
			k := key{scheme: scheme, id: id}
			if _, exists := ix.byKey[k]; !exists {
				ix.byKey[k] = pos
			}
		}
	}
	return ix
}

// Match returns the indexed item for record, honoring scheme priority.
func (ix *Index) Match(record catalogs.SourceRecord) (Result, bool) {
	for _, scheme := range ix.schemes {
		want, ok := record.ExternalIDs.Get(scheme)
		if !ok {
			continue
		}
		if pos, found := ix.byKey[key{scheme: scheme, id: want}]; found {
			return Result{Item: ix.items[pos], Position: pos, Scheme: scheme}, true
		}
	}
	return Result{}, false
}

// Schemes returns the normalized priority order the index was built with.
func (ix *Index) Schemes() []catalogs.Scheme {
	return ix.schemes
}

// Len returns the number of indexed items.
func (ix *Index) Len() int {
	return len(ix.items)
}
