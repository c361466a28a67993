package differ

// Differ computes tag operations for one item at a time.
type Differ interface {
	// Tags returns the ordered operations turning current into desired for itemID.
	Tags(itemID string, current, desired TagSet) []Operation
}

type differ struct {
	prefix    string
	overwrite bool
}

// New creates a Differ. By default it runs in additive mode with no prefix.
func New(opts ...Option) Differ {
	d := &differ{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tags implements Differ.
func (d *differ) Tags(itemID string, current, desired TagSet) []Operation {
	ops := Diff(current, desired, d.prefix, d.overwrite)
	for i := range ops {
		ops[i].ItemID = itemID
	}
	return ops
}

// Diff returns the operations that bring current in line with desired.
//
// In overwrite mode every current tag starting with prefix that is not
// desired is removed. Every desired tag missing from current is added.
// Tags without the prefix are never touched. Removes come first, then adds,
// each group sorted by folded label. Removes use the item's own spelling of
// the label.
func Diff(current, desired TagSet, prefix string, overwrite bool) []Operation {
	var ops []Operation

	if overwrite {
		for _, label := range current.Prefixed(prefix).Labels() {
			if !desired.Contains(label) {
				ops = append(ops, Operation{Kind: ChangeTypeRemove, Label: label})
			}
		}
	}

	for _, label := range desired.Labels() {
		if !current.Contains(label) {
			ops = append(ops, Operation{Kind: ChangeTypeAdd, Label: label})
		}
	}

	return ops
}
