package alerts

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Writer prints alerts.
type Writer struct {
	w        io.Writer
	useColor bool
	quiet    bool
}

// NewWriter creates a writer. Color is used only when w is a terminal and
// noColor is false. A quiet writer prints errors only.
func NewWriter(w io.Writer, noColor, quiet bool) *Writer {
	return &Writer{
		w:        w,
		useColor: !noColor && isTerminal(w),
		quiet:    quiet,
	}
}

// Write prints the alert and its details.
func (wr *Writer) Write(alert *Alert) error {
	if wr.quiet && alert.Level != LevelError {
		return nil
	}

	line := alert.String()
	if wr.useColor {
		line = alert.Level.color() + line + reset
	}
	if _, err := fmt.Fprintln(wr.w, line); err != nil {
		return err
	}
	for _, detail := range alert.Details {
		if _, err := fmt.Fprintf(wr.w, "   %s\n", detail); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
