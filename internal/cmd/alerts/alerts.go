// Package alerts prints short status lines (warnings, connection results,
// shutdown notices) to the terminal, separate from command output.
package alerts

import (
	"fmt"

	"github.com/ellisd4/tagsync/internal/cmd/emoji"
)

// Level represents the severity of an alert.
type Level int

const (
	// LevelError indicates a failure.
	LevelError Level = iota
	// LevelWarning indicates a potential issue or important notice.
	LevelWarning
	// LevelInfo indicates general informational messages.
	LevelInfo
	// LevelSuccess indicates successful completion of an operation.
	LevelSuccess
)

// String returns the string representation of the alert level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// Icon returns the symbol printed before the message.
func (l Level) Icon() string {
	switch l {
	case LevelError:
		return emoji.Error
	case LevelWarning:
		return emoji.Warning
	case LevelSuccess:
		return emoji.Success
	default:
		return emoji.Info
	}
}

func (l Level) color() string {
	switch l {
	case LevelError:
		return "\033[31m"
	case LevelWarning:
		return "\033[33m"
	case LevelSuccess:
		return "\033[32m"
	default:
		return "\033[36m"
	}
}

const reset = "\033[0m"

// Alert is one status line with optional detail lines.
type Alert struct {
	Level   Level
	Message string
	Details []string
	Err     error
}

// New creates an alert.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message}
}

// NewError creates an error alert.
func NewError(message string) *Alert { return New(LevelError, message) }

// NewWarning creates a warning alert.
func NewWarning(message string) *Alert { return New(LevelWarning, message) }

// NewInfo creates an info alert.
func NewInfo(message string) *Alert { return New(LevelInfo, message) }

// NewSuccess creates a success alert.
func NewSuccess(message string) *Alert { return New(LevelSuccess, message) }

// WithError attaches the underlying error.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails appends indented detail lines.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String renders the alert without color.
func (a *Alert) String() string {
	message := fmt.Sprintf("%s %s", a.Level.Icon(), a.Message)
	if a.Err != nil {
		message += fmt.Sprintf(": %v", a.Err)
	}
	return message
}
