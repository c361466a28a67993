package reconciler

import (
	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// Config is the policy for one reconciliation run. It is a plain value:
// callers build it from their configuration source and pass it in, and it
// never changes while a run is in progress.
type Config struct {
	// TagPrefix namespaces managed tags. It may be empty, in which case
	// overwrite mode manages every tag on matched items.
	TagPrefix string `json:"tag_prefix" yaml:"tag_prefix"`

	// OverwriteExistingTags removes prefixed tags the source no longer assigns.
	OverwriteExistingTags bool `json:"overwrite_existing_tags" yaml:"overwrite_existing_tags"`

	// Schemes is the identifier priority order. Defaults to tvdb then tmdb.
	Schemes []catalogs.Scheme `json:"schemes" yaml:"schemes"`
}

// DefaultConfig returns the default policy: additive mode, no prefix,
// tvdb before tmdb.
func DefaultConfig() Config {
	return Config{Schemes: catalogs.DefaultSchemes()}
}

// Validate checks the config.
func (c Config) Validate() error {
	for _, s := range c.Schemes {
		if s.Normalize() == "" {
			return &errors.ValidationError{
				Field:   "schemes",
				Value:   c.Schemes,
				Message: "scheme names cannot be blank",
			}
		}
	}
	return nil
}

// ManagesAllTags reports whether the config removes tags it did not create:
// overwrite mode with an empty prefix.
func (c Config) ManagesAllTags() bool {
	return c.OverwriteExistingTags && c.TagPrefix == ""
}

// normalized returns a copy with defaults applied and schemes deduplicated.
func (c Config) normalized() Config {
	out := c
	names := make([]string, len(c.Schemes))
	for i, s := range c.Schemes {
		names[i] = string(s)
	}
	out.Schemes = catalogs.ParseSchemes(names)
	if len(out.Schemes) == 0 {
		out.Schemes = catalogs.DefaultSchemes()
	}
	return out
}
