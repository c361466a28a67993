package tagsync

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/utc"
	"golang.org/x/sync/errgroup"

	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/reconciler"
)

// Compile-time interface check to ensure proper implementation.
var _ Connection = (*client)(nil)

// Connection reports on the configured catalogs.
type Connection interface {
	// TestConnection contacts both catalogs and reports versions and sizes.
	// It fails only when the configuration is incomplete; unreachable
	// catalogs are reported in the returned report.
	TestConnection(ctx context.Context) (*ConnectionReport, error)

	// Status reports configuration and scheduling state without any request.
	Status() Status
}

// CatalogReport is the outcome of testing one catalog.
type CatalogReport struct {
	Name    string `json:"name" yaml:"name"`
	OK      bool   `json:"ok" yaml:"ok"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Count   int    `json:"count" yaml:"count"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ConnectionReport is the result of TestConnection.
type ConnectionReport struct {
	Success  bool          `json:"success" yaml:"success"`
	Message  string        `json:"message" yaml:"message"`
	Source   CatalogReport `json:"source" yaml:"source"`
	Target   CatalogReport `json:"target" yaml:"target"`
	TestedAt utc.Time      `json:"tested_at" yaml:"tested_at"`
}

// Status describes the client's configuration and last run.
type Status struct {
	Configured            bool                `json:"configured" yaml:"configured"`
	ConfigError           string              `json:"config_error,omitempty" yaml:"config_error,omitempty"`
	Source                string              `json:"source" yaml:"source"`
	Target                string              `json:"target" yaml:"target"`
	TagPrefix             string              `json:"tag_prefix" yaml:"tag_prefix"`
	OverwriteExistingTags bool                `json:"overwrite_existing_tags" yaml:"overwrite_existing_tags"`
	DryRun                bool                `json:"dry_run" yaml:"dry_run"`
	AutoSync              bool                `json:"auto_sync" yaml:"auto_sync"`
	Interval              string              `json:"interval" yaml:"interval"`
	Running               bool                `json:"running" yaml:"running"`
	LastRunAt             *utc.Time           `json:"last_run_at,omitempty" yaml:"last_run_at,omitempty"`
	LastRunError          string              `json:"last_run_error,omitempty" yaml:"last_run_error,omitempty"`
	LastSummary           *reconciler.Summary `json:"last_summary,omitempty" yaml:"last_summary,omitempty"`
}

// TestConnection implements Connection.
func (c *client) TestConnection(ctx context.Context) (*ConnectionReport, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.PingTimeout)
	defer cancel()

	src, target := c.options.source, c.options.target
	report := &ConnectionReport{
		Source: CatalogReport{Name: catalogs.NameOf(src, "source")},
		Target: CatalogReport{Name: catalogs.NameOf(target, "target")},
	}

	// Neither probe cancels the other so both outcomes are reported.
	var g errgroup.Group
	g.Go(func() error {
		probe(ctx, src, &report.Source, func(ctx context.Context) (int, error) {
			records, err := src.FetchRecords(ctx)
			return len(records), err
		})
		return nil
	})
	g.Go(func() error {
		probe(ctx, target, &report.Target, func(ctx context.Context) (int, error) {
			items, err := target.FetchItems(ctx)
			return len(items), err
		})
		return nil
	})
	_ = g.Wait()

	report.TestedAt = utc.Now()
	report.Success = report.Source.OK && report.Target.OK
	if report.Success {
		report.Message = fmt.Sprintf("Connected to %s %s (%d series) and %s %s (%d items)",
			report.Source.Name, report.Source.Version, report.Source.Count,
			report.Target.Name, report.Target.Version, report.Target.Count)
	} else {
		report.Message = "Connection failed: " + firstNonEmpty(report.Source.Error, report.Target.Error)
	}
	return report, nil
}

// probe pings a catalog when it supports it and counts its entries.
func probe(ctx context.Context, catalog any, out *CatalogReport, count func(context.Context) (int, error)) {
	if p, ok := catalog.(catalogs.Pinger); ok {
		version, err := p.Ping(ctx)
		if err != nil {
			out.Error = err.Error()
			return
		}
		out.Version = version
	}
	n, err := count(ctx)
	if err != nil {
		out.Error = err.Error()
		return
	}
	out.Count = n
	out.OK = true
}

// Status implements Connection.
func (c *client) Status() Status {
	cfg := c.options.config
	st := Status{
		Configured:            true,
		Source:                catalogs.NameOf(c.options.source, "source"),
		Target:                catalogs.NameOf(c.options.target, "target"),
		TagPrefix:             cfg.TagPrefix,
		OverwriteExistingTags: cfg.OverwriteExistingTags,
		DryRun:                c.options.dryRun,
		AutoSync:              c.AutoSyncEnabled(),
		Interval:              formatInterval(c.options.autoSyncInterval),
		Running:               c.running.Load(),
	}
	if err := c.validate(); err != nil {
		st.Configured = false
		st.ConfigError = err.Error()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.lastRunAt.IsZero() {
		at := c.lastRunAt
		st.LastRunAt = &at
	}
	if c.lastErr != nil {
		st.LastRunError = c.lastErr.Error()
	}
	if c.last != nil {
		summary := c.last.Summary
		st.LastSummary = &summary
	}
	return st
}

func formatInterval(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d/time.Hour))
	}
	return d.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
