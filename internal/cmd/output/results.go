package output

import (
	"fmt"
	"io"

	"github.com/ellisd4/tagsync"
	"github.com/ellisd4/tagsync/internal/cmd/table"
	"github.com/ellisd4/tagsync/pkg/reconciler"
)

// FormatResult writes a run result. Tables show the summary, then the
// operations and problems when there are any; other formats encode the
// whole result.
func FormatResult(w io.Writer, format Format, result *reconciler.Result) error {
	f := NewFormatter(format)
	if format == FormatJSON || format == FormatYAML {
		return f.Format(w, result)
	}

	title := "Sync summary"
	if result.DryRun {
		title += " (dry run)"
	}
	if result.Canceled {
		title += " (canceled)"
	}
	if _, err := fmt.Fprintf(w, "%s\n", title); err != nil {
		return err
	}
	if err := f.Format(w, table.SummaryData(result.Summary)); err != nil {
		return err
	}

	if len(result.Operations) > 0 {
		if _, err := fmt.Fprintf(w, "\nOperations\n"); err != nil {
			return err
		}
		if err := f.Format(w, table.OperationsData(result.Operations)); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "\nNo changes.\n"); err != nil {
			return err
		}
	}

	if len(result.Problems) > 0 {
		if _, err := fmt.Fprintf(w, "\nProblems\n"); err != nil {
			return err
		}
		if err := f.Format(w, table.ProblemsData(result.Problems)); err != nil {
			return err
		}
	}

	for _, warning := range result.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}

// FormatStatus writes the client status.
func FormatStatus(w io.Writer, format Format, status tagsync.Status) error {
	if format == FormatJSON || format == FormatYAML {
		return NewFormatter(format).Format(w, status)
	}
	return NewFormatter(format).Format(w, table.StatusData(status))
}

// FormatConnection writes a connection test report.
func FormatConnection(w io.Writer, format Format, report *tagsync.ConnectionReport) error {
	if format == FormatJSON || format == FormatYAML {
		return NewFormatter(format).Format(w, report)
	}
	if err := NewFormatter(format).Format(w, table.ConnectionData(report)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, report.Message)
	return err
}
