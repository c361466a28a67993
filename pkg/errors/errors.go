// Package errors provides custom error types for the tagsync system.
// These errors enable programmatic error checking across the reconciler,
// the catalog adapters and the command line, and map one-to-one onto the
// failure classes a caller must distinguish: incomplete configuration,
// unavailable upstream or local catalogs, and non-fatal mutation failures.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As are aliases for the standard library helpers so callers need
// only one errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the tagsync system
var (
	// ErrConfigurationIncomplete indicates missing credentials or URLs; a run fails before any fetch
	ErrConfigurationIncomplete = errors.New("configuration incomplete")

	// ErrUpstreamUnavailable indicates the source catalog could not be reached or rejected credentials
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrCatalogUnavailable indicates the target catalog could not be read
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrMutationFailed indicates a single tag mutation was not applied
	ErrMutationFailed = errors.New("mutation failed")

	// ErrRunInProgress indicates a reconciliation run is already active
	ErrRunInProgress = errors.New("run already in progress")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Field     string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Component != "" {
		return fmt.Sprintf("configuration incomplete for %s: %s", e.Component, msg)
	}
	return fmt.Sprintf("configuration incomplete: %s", msg)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigurationIncomplete
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, field, message string) *ConfigError {
	return &ConfigError{
		Component: component,
		Field:     field,
		Message:   message,
	}
}

// UpstreamError represents a failure fetching from the source catalog
type UpstreamError struct {
	Source     string
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s unavailable (status %d at %s): %s", e.Source, e.StatusCode, e.Endpoint, e.Message)
	}
	if e.Endpoint != "" {
		return fmt.Sprintf("upstream %s unavailable at %s: %s", e.Source, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("upstream %s unavailable: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// CredentialsRejected reports whether the upstream refused the configured credentials.
func (e *UpstreamError) CredentialsRejected() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// WrapUpstream wraps an error as an UpstreamError
func WrapUpstream(source, endpoint string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{
		Source:     source,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// CatalogError represents a failure reading the target catalog
type CatalogError struct {
	Catalog   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("catalog %s unavailable during %s: %s", e.Catalog, e.Operation, e.Message)
	}
	return fmt.Sprintf("catalog %s unavailable: %s", e.Catalog, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *CatalogError) Is(target error) bool {
	return target == ErrCatalogUnavailable
}

// WrapCatalog wraps an error as a CatalogError
func WrapCatalog(catalog, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &CatalogError{
		Catalog:   catalog,
		Operation: operation,
		Message:   err.Error(),
		Err:       err,
	}
}

// MutationError represents a tag mutation that was not applied to a target item
type MutationError struct {
	Kind     string // "add" or "remove"
	ItemID   string
	ItemName string
	Label    string
	Err      error
}

// Error implements the error interface
func (e *MutationError) Error() string {
	item := e.ItemID
	if e.ItemName != "" {
		item = fmt.Sprintf("%s (%s)", e.ItemName, e.ItemID)
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to %s tag %q on %s: %v", e.Kind, e.Label, item, e.Err)
	}
	return fmt.Sprintf("failed to %s tag %q on %s", e.Kind, e.Label, item)
}

// Unwrap implements errors.Unwrap
func (e *MutationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MutationError) Is(target error) bool {
	return target == ErrMutationFailed
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents a non-success response from a catalog API
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Service, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == http.StatusNotFound {
		return target == ErrNotFound
	}
	return false
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", etc.
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsConfigurationIncomplete checks if an error is a configuration error
func IsConfigurationIncomplete(err error) bool {
	return errors.Is(err, ErrConfigurationIncomplete)
}

// IsUpstreamUnavailable checks if an error is a source catalog failure
func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// IsCatalogUnavailable checks if an error is a target catalog failure
func IsCatalogUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable)
}

// IsMutationFailed checks if an error is a per-operation mutation failure
func IsMutationFailed(err error) bool {
	return errors.Is(err, ErrMutationFailed)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapCanceled wraps a context error so it matches ErrCanceled while keeping the cause.
func WrapCanceled(cause error) error {
	if cause == nil {
		return ErrCanceled
	}
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}
