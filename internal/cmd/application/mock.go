// Package application provides a mock of the command application interface.
package application

import (
	"github.com/rs/zerolog"

	"github.com/ellisd4/tagsync"
	"github.com/ellisd4/tagsync/cmd/application"
	"github.com/ellisd4/tagsync/internal/server"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// Mock implements the command application interface for tests. A nil
// function field returns a default value.
//
//	mock := &application.Mock{
//	    ClientFunc: func() (tagsync.Client, error) { return client, nil },
//	}
//	cmd := sync.NewCommand(mock)
type Mock struct {
	ClientFunc       func() (tagsync.Client, error)
	LibraryFunc      func() (application.Library, error)
	ServerConfigFunc func() server.Config
	AutoSyncFunc     func() bool
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

var _ application.Application = (*Mock)(nil)

// Client returns the client from ClientFunc, or nil.
func (m *Mock) Client() (tagsync.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return nil, nil
}

// Library returns the library from LibraryFunc, or a ConfigError.
func (m *Mock) Library() (application.Library, error) {
	if m.LibraryFunc != nil {
		return m.LibraryFunc()
	}
	return nil, errors.NewConfigError("target", "kind", "no library configured")
}

// ServerConfig returns ServerConfigFunc's value or server.DefaultConfig.
func (m *Mock) ServerConfig() server.Config {
	if m.ServerConfigFunc != nil {
		return m.ServerConfigFunc()
	}
	return server.DefaultConfig()
}

// AutoSync returns AutoSyncFunc's value or false.
func (m *Mock) AutoSync() bool {
	if m.AutoSyncFunc != nil {
		return m.AutoSyncFunc()
	}
	return false
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }
