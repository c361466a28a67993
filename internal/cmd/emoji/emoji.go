// Package emoji provides symbol constants for CLI output.
package emoji

// Symbols used for status indicators and user feedback in terminal output.
const (
	// Success marks completed operations and passing checks.
	Success = "✓"

	// Error marks failures and missing configuration.
	Error = "✗"

	// Stop marks shutdowns.
	Stop = "✗"

	// Warning marks non-fatal issues.
	Warning = "!"

	// Info marks informational rows such as simulated operations.
	Info = "i"
)
