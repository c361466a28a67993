package catalogs

import "context"

// Source reads the authoritative tag assignments (Sonarr).
// Implementations fail with errors.ErrUpstreamUnavailable when the catalog
// cannot be reached or rejects credentials.
type Source interface {
	FetchRecords(ctx context.Context) ([]SourceRecord, error)
	FetchTagDictionary(ctx context.Context) (TagDictionary, error)
}

// Mutator persists tag changes on target items.
// A nil error means the change is durable. Adding a tag that is already
// present, or removing one that is already absent, succeeds without change.
type Mutator interface {
	AddTag(ctx context.Context, itemID, label string) error
	RemoveTag(ctx context.Context, itemID, label string) error
}

// Target is the catalog whose items receive synchronized tags.
// FetchItems fails with errors.ErrCatalogUnavailable on access failures.
type Target interface {
	FetchItems(ctx context.Context) ([]TargetItem, error)
	Mutator
}

// Pinger is implemented by catalogs that support a connection test.
// It returns the remote version string when available.
type Pinger interface {
	Ping(ctx context.Context) (version string, err error)
}

// Validator is implemented by catalogs whose settings can be checked before
// any request is made. It fails with errors.ErrConfigurationIncomplete.
type Validator interface {
	Validate() error
}

// Named is implemented by catalogs that report a human readable name.
type Named interface {
	Name() string
}

// NameOf returns the catalog's name, or fallback when it is not Named.
func NameOf(v any, fallback string) string {
	if n, ok := v.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return fallback
}
