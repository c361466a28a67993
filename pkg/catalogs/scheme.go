package catalogs

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Scheme names an external identifier scheme such as tvdb or tmdb.
// Scheme names compare case-insensitively, so a target catalog that stores
// "Tvdb" matches a source that reports "tvdb".
type Scheme string

// Built-in identifier schemes.
const (
	SchemeTVDB Scheme = "tvdb"
	SchemeTMDB Scheme = "tmdb"
	SchemeIMDB Scheme = "imdb"
)

// DefaultSchemes is the matching priority order: primary first, then secondary.
func DefaultSchemes() []Scheme {
	return []Scheme{SchemeTVDB, SchemeTMDB}
}

// String returns the scheme name.
func (s Scheme) String() string {
	return string(s)
}

// Normalize returns the canonical (trimmed, lower-case) form of the scheme name.
func (s Scheme) Normalize() Scheme {
	return Scheme(strings.ToLower(strings.TrimSpace(string(s))))
}

// Equal reports whether two scheme names refer to the same scheme.
func (s Scheme) Equal(other Scheme) bool {
	return s.Normalize() == other.Normalize()
}

// ParseSchemes turns a list of names into schemes, dropping blanks and repeats.
func ParseSchemes(names []string) []Scheme {
	var out []Scheme
	seen := make(map[Scheme]bool, len(names))
	for _, name := range names {
		s := Scheme(name).Normalize()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Fold returns the case-folded form of s used for every case-insensitive
// comparison of tag labels and identifier values.
func Fold(s string) string {
	// Casers are stateful and must not be shared between goroutines.
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under Unicode case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// HasPrefixFold reports whether label starts with prefix, ignoring case.
// Every label has the empty prefix.
func HasPrefixFold(label, prefix string) bool {
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(Fold(label), Fold(prefix))
}

// IsAbsentID reports whether an identifier value means "no identifier".
// A value is absent when it is blank after trimming, or when it is a base-10
// integer less than or equal to zero. Non-numeric values are present.
func IsAbsentID(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return true
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n <= 0
	}
	return false
}

// NormalizeID returns the comparison key for a present identifier value,
// or "" when the value is absent.
func NormalizeID(value string) string {
	if IsAbsentID(value) {
		return ""
	}
	return Fold(strings.TrimSpace(value))
}

// FormatNumericID renders a numeric identifier, returning "" for values <= 0.
// Source adapters use it for APIs that encode a missing id as 0.
func FormatNumericID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
