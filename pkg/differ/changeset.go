// Package differ computes the tag operations that bring an item's tags in
// line with the tags its source record asks for.
package differ

import (
	"fmt"
	"strings"
)

// ChangeType represents the kind of tag operation.
type ChangeType string

const (
	// ChangeTypeAdd attaches a tag to an item.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeRemove detaches a tag from an item.
	ChangeTypeRemove ChangeType = "remove"
)

// Operation is a single tag mutation on one target item.
type Operation struct {
	Kind   ChangeType `json:"kind" yaml:"kind"`
	ItemID string     `json:"item_id" yaml:"item_id"`
	Label  string     `json:"label" yaml:"label"`
}

// String renders the operation as "Add sonarr-hd".
func (o Operation) String() string {
	switch o.Kind {
	case ChangeTypeAdd:
		return "Add " + o.Label
	case ChangeTypeRemove:
		return "Remove " + o.Label
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.Label)
	}
}

// Changeset summarizes a list of operations.
type Changeset struct {
	Adds    int
	Removes int
}

// Summarize counts the operations by kind.
func Summarize(ops []Operation) Changeset {
	var c Changeset
	for _, op := range ops {
		switch op.Kind {
		case ChangeTypeAdd:
			c.Adds++
		case ChangeTypeRemove:
			c.Removes++
		}
	}
	return c
}

// IsEmpty returns true if there is nothing to do.
func (c Changeset) IsEmpty() bool {
	return c.Adds == 0 && c.Removes == 0
}

// String returns a human-readable summary of the changeset.
func (c Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}
	var parts []string
	if c.Adds > 0 {
		parts = append(parts, fmt.Sprintf("%d to add", c.Adds))
	}
	if c.Removes > 0 {
		parts = append(parts, fmt.Sprintf("%d to remove", c.Removes))
	}
	return strings.Join(parts, ", ")
}
