// Package table turns sync results and client state into rows for the CLI
// table formatter.
package table

import (
	"strconv"

	"github.com/ellisd4/tagsync"
	"github.com/ellisd4/tagsync/internal/cmd/emoji"
	"github.com/ellisd4/tagsync/pkg/reconciler"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align
}

// SummaryData lists the run counters.
func SummaryData(s reconciler.Summary) Data {
	rows := [][]string{
		{"Source records", strconv.Itoa(s.SourceRecords)},
		{"Tag definitions", strconv.Itoa(s.TagDefinitions)},
		{"Target items", strconv.Itoa(s.TargetItems)},
		{"Matched", strconv.Itoa(s.Matched)},
		{"Unmatched", strconv.Itoa(s.Unmatched)},
		{"Skipped (no identifier)", strconv.Itoa(s.SkippedNoIdentifier)},
		{"Duplicates", strconv.Itoa(s.Duplicates)},
		{"Tags added", strconv.Itoa(s.TagsAdded)},
		{"Tags removed", strconv.Itoa(s.TagsRemoved)},
		{"Failed", strconv.Itoa(s.Failed)},
	}
	return Data{
		Headers:         []string{"Metric", "Count"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// OperationsData lists attempted operations in plan order.
func OperationsData(ops []reconciler.AppliedOperation) Data {
	rows := make([][]string, 0, len(ops))
	for _, op := range ops {
		rows = append(rows, []string{
			op.SeriesTitle,
			op.ItemName,
			string(op.Kind),
			op.Label,
			statusCell(op.Status),
			dash(op.Error),
		})
	}
	return Data{
		Headers: []string{"Series", "Item", "Change", "Tag", "Status", "Error"},
		Rows:    rows,
	}
}

// ProblemsData lists failed mutations.
func ProblemsData(problems []reconciler.Problem) Data {
	rows := make([][]string, 0, len(problems))
	for _, p := range problems {
		rows = append(rows, []string{p.ItemName, p.ItemID, string(p.Kind), p.Label, p.Message})
	}
	return Data{
		Headers: []string{"Item", "ID", "Change", "Tag", "Error"},
		Rows:    rows,
	}
}

// StatusData renders client status as property/value rows.
func StatusData(s tagsync.Status) Data {
	rows := [][]string{
		{"Configured", check(s.Configured)},
	}
	if s.ConfigError != "" {
		rows = append(rows, []string{"Configuration error", s.ConfigError})
	}
	rows = append(rows,
		[]string{"Source", s.Source},
		[]string{"Target", s.Target},
		[]string{"Tag prefix", quoted(s.TagPrefix)},
		[]string{"Overwrite existing tags", check(s.OverwriteExistingTags)},
		[]string{"Dry run", check(s.DryRun)},
		[]string{"Auto sync", check(s.AutoSync)},
		[]string{"Interval", s.Interval},
		[]string{"Running", check(s.Running)},
	)
	if s.LastRunAt != nil {
		rows = append(rows, []string{"Last run", s.LastRunAt.Format("2006-01-02 15:04:05 MST")})
	}
	if s.LastRunError != "" {
		rows = append(rows, []string{"Last error", s.LastRunError})
	}
	if s.LastSummary != nil {
		rows = append(rows, []string{"Last summary", s.LastSummary.String()})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// ConnectionData renders one row per catalog.
func ConnectionData(r *tagsync.ConnectionReport) Data {
	row := func(role string, c tagsync.CatalogReport) []string {
		return []string{role, c.Name, check(c.OK), dash(c.Version), strconv.Itoa(c.Count), dash(c.Error)}
	}
	return Data{
		Headers:         []string{"Role", "Catalog", "OK", "Version", "Series", "Error"},
		Rows:            [][]string{row("source", r.Source), row("target", r.Target)},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignCenter, AlignLeft, AlignRight, AlignLeft},
	}
}

func statusCell(s reconciler.Status) string {
	switch s {
	case reconciler.StatusApplied:
		return emoji.Success + " " + string(s)
	case reconciler.StatusFailed:
		return emoji.Error + " " + string(s)
	default:
		return emoji.Info + " " + string(s)
	}
}

func check(ok bool) string {
	if ok {
		return emoji.Success
	}
	return emoji.Error
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func quoted(s string) string {
	if s == "" {
		return `"" (all tags)`
	}
	return strconv.Quote(s)
}
