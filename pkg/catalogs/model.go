package catalogs

import "sort"

// ExternalIDs maps an identifier scheme to the value stored for it.
type ExternalIDs map[Scheme]string

// Get returns the normalized value for scheme, matching the scheme name
// case-insensitively. The exact normalized key wins; other spellings are
// tried in sorted order. ok is false when the scheme is missing or absent.
func (ids ExternalIDs) Get(scheme Scheme) (value string, ok bool) {
	want := scheme.Normalize()
	if v, found := ids[want]; found {
		if n := NormalizeID(v); n != "" {
			return n, true
		}
	}

	var variants []Scheme
	for s := range ids {
		if s != want && s.Normalize() == want {
			variants = append(variants, s)
		}
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })
	for _, s := range variants {
		if n := NormalizeID(ids[s]); n != "" {
			return n, true
		}
	}
	return "", false
}

// HasAny reports whether at least one of schemes has a present value.
func (ids ExternalIDs) HasAny(schemes []Scheme) bool {
	for _, s := range schemes {
		if _, ok := ids.Get(s); ok {
			return true
		}
	}
	return false
}

// SourceRecord is one entry from the source catalog (a Sonarr series).
// Title is for diagnostics only and never used for matching.
type SourceRecord struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	ExternalIDs ExternalIDs `json:"external_ids" yaml:"external_ids"`
	TagIDs      []int       `json:"tag_ids,omitempty" yaml:"tag_ids,omitempty"`
}

// HasIdentifier reports whether the record carries a usable identifier for any of schemes.
func (r SourceRecord) HasIdentifier(schemes []Scheme) bool {
	return r.ExternalIDs.HasAny(schemes)
}

// TagDefinition is one entry of the source catalog's tag dictionary.
type TagDefinition struct {
	ID    int    `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// TagDictionary resolves source tag ids to labels.
type TagDictionary map[int]string

// NewTagDictionary builds a dictionary from definitions. The first definition
// for an id wins.
func NewTagDictionary(defs []TagDefinition) TagDictionary {
	d := make(TagDictionary, len(defs))
	for _, def := range defs {
		if _, exists := d[def.ID]; !exists {
			d[def.ID] = def.Label
		}
	}
	return d
}

// Label returns the label for id.
func (d TagDictionary) Label(id int) (string, bool) {
	label, ok := d[id]
	return label, ok
}

// Definitions returns the dictionary as definitions sorted by id.
func (d TagDictionary) Definitions() []TagDefinition {
	defs := make([]TagDefinition, 0, len(d))
	for id, label := range d {
		defs = append(defs, TagDefinition{ID: id, Label: label})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// TargetItem is one entry in the target catalog (a library series).
type TargetItem struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	ExternalIDs ExternalIDs `json:"external_ids" yaml:"external_ids"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// HasTag reports whether the item carries label, ignoring case.
func (i TargetItem) HasTag(label string) bool {
	want := Fold(label)
	for _, t := range i.Tags {
		if Fold(t) == want {
			return true
		}
	}
	return false
}
