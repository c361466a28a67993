package differ

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithPrefix sets the namespace prefix of managed tags.
func WithPrefix(prefix string) Option {
	return func(d *differ) {
		d.prefix = prefix
	}
}

// WithOverwrite enables removal of prefixed tags that are no longer desired.
func WithOverwrite(enabled bool) Option {
	return func(d *differ) {
		d.overwrite = enabled
	}
}
