// Package report renders a reconciliation result as a Markdown audit report.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/reconciler"
)

// Write renders result to w.
func Write(w io.Writer, result *reconciler.Result) error {
	if result == nil {
		return errors.NewValidationError("result", nil, "result is required")
	}

	doc := md.NewMarkdown(w)
	doc.H1(title(result)).LF()
	doc.PlainText(fmt.Sprintf("Run %s started %s and took %s.",
		md.Code(result.RunID.String()),
		result.StartedAt.Format(constants.TimeFormatHuman),
		result.Duration().Round(time.Millisecond))).LF()

	prefix := result.Config.TagPrefix
	if prefix == "" {
		prefix = "(none)"
	}
	doc.H2("Configuration").LF()
	doc.Table(md.TableSet{
		Header: []string{"Setting", "Value"},
		Rows: [][]string{
			{"Tag prefix", md.Code(prefix)},
			{"Overwrite existing tags", strconv.FormatBool(result.Config.OverwriteExistingTags)},
			{"Dry run", strconv.FormatBool(result.DryRun)},
		},
	}).LF()

	s := result.Summary
	doc.H2("Summary").LF()
	doc.Table(md.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Series in source", strconv.Itoa(s.SourceRecords)},
			{"Tag definitions", strconv.Itoa(s.TagDefinitions)},
			{"Items in target", strconv.Itoa(s.TargetItems)},
			{"Matched", strconv.Itoa(s.Matched)},
			{"Unmatched", strconv.Itoa(s.Unmatched)},
			{"Skipped (no identifier)", strconv.Itoa(s.SkippedNoIdentifier)},
			{"Duplicate matches", strconv.Itoa(s.Duplicates)},
			{"Tags added", strconv.Itoa(s.TagsAdded)},
			{"Tags removed", strconv.Itoa(s.TagsRemoved)},
			{"Failed", strconv.Itoa(s.Failed)},
		},
	}).LF()

	doc.H2("Operations").LF()
	if len(result.Operations) == 0 {
		doc.PlainText("No changes.").LF()
	} else {
		rows := make([][]string, 0, len(result.Operations))
		for _, op := range result.Operations {
			rows = append(rows, []string{
				string(op.Status),
				string(op.Kind),
				md.Code(op.Label),
				op.ItemName,
				op.SeriesTitle,
			})
		}
		doc.Table(md.TableSet{
			Header: []string{"Status", "Kind", "Tag", "Item", "Series"},
			Rows:   rows,
		}).LF()
	}

	if len(result.Problems) > 0 {
		doc.H2("Problems").LF()
		items := make([]string, 0, len(result.Problems))
		for _, p := range result.Problems {
			items = append(items, p.Message)
		}
		doc.BulletList(items...).LF()
	}

	if len(result.Warnings) > 0 {
		doc.H2("Warnings").LF()
		doc.BulletList(result.Warnings...).LF()
	}

	return doc.Build()
}

// WriteFile renders result to path, creating parent directories.
func WriteFile(path string, result *reconciler.Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("mkdir", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	if err := Write(f, result); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}

func title(result *reconciler.Result) string {
	switch {
	case result.Canceled:
		return "Tag Sync Report (canceled)"
	case result.DryRun:
		return "Tag Sync Report (dry run)"
	default:
		return "Tag Sync Report"
	}
}
