package differ

import (
	"sort"

	"github.com/ellisd4/tagsync/pkg/catalogs"
)

// TagSet is a set of tag labels with case-insensitive membership.
// It remembers the first spelling added for each label.
// The zero value is not usable; call NewTagSet.
type TagSet map[string]string

// NewTagSet creates a set holding labels.
func NewTagSet(labels ...string) TagSet {
	s := make(TagSet, len(labels))
	for _, l := range labels {
		s.Add(l)
	}
	return s
}

// Add inserts label unless an equal label (ignoring case) is present.
func (s TagSet) Add(label string) {
	key := catalogs.Fold(label)
	if _, exists := s[key]; !exists {
		s[key] = label
	}
}

// Contains reports whether label is in the set, ignoring case.
func (s TagSet) Contains(label string) bool {
	_, ok := s[catalogs.Fold(label)]
	return ok
}

// Len returns the number of labels.
func (s TagSet) Len() int {
	return len(s)
}

// Labels returns the labels in a stable order (sorted by folded form).
func (s TagSet) Labels() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s[k]
	}
	return out
}

// Prefixed returns the subset of labels that start with prefix, ignoring case.
// An empty prefix selects every label.
func (s TagSet) Prefixed(prefix string) TagSet {
	out := make(TagSet, len(s))
	for k, v := range s {
		if catalogs.HasPrefixFold(v, prefix) {
			out[k] = v
		}
	}
	return out
}

// Equal reports whether both sets hold the same labels, ignoring case.
func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Resolve turns a record's tag ids into the set of prefixed labels that
// should be present on its matched item. Ids missing from dict are dropped
// silently; the source's dictionary may lag its records.
func Resolve(tagIDs []int, dict catalogs.TagDictionary, prefix string) TagSet {
	out := make(TagSet, len(tagIDs))
	for _, id := range tagIDs {
		label, ok := dict.Label(id)
		if !ok {
			continue
		}
		out.Add(prefix + label)
	}
	return out
}
