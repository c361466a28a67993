// Package sync provides the one-shot sync command.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ellisd4/tagsync/cmd/application"
	"github.com/ellisd4/tagsync/internal/cmd/alerts"
	"github.com/ellisd4/tagsync/internal/cmd/globals"
	"github.com/ellisd4/tagsync/internal/cmd/output"
	"github.com/ellisd4/tagsync/internal/report"
	runopts "github.com/ellisd4/tagsync/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	DryRun      bool
	Overwrite   bool
	Prefix      string
	Concurrency int
	Timeout     time.Duration
	Report      string
}

// NewCommand creates the sync command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Copy Sonarr tags onto matching library series",
		Args:    cobra.NoArgs,
		Long: `Sync runs one reconciliation. It fetches every Sonarr series and
tag definition plus every library series, matches them by TVDB or TMDB id,
and adds each Sonarr tag (with the configured prefix) to the matched item.

With --overwrite, tags that carry the prefix but are no longer assigned in
Sonarr are removed. With an empty prefix and --overwrite, EVERY tag on a
matched item is managed: tags added by hand in the library are removed
unless Sonarr assigns the same tag.

Mutation failures are reported per operation and do not stop the run.
The command exits non-zero when configuration is incomplete or a catalog
cannot be read.`,
		Example: `  tagsync sync                          # sync with configured settings
  tagsync sync --dry-run                # show what would change
  tagsync sync --prefix sonarr- --overwrite
  tagsync sync -o json > result.json
  tagsync sync --report sync.md         # also write a markdown report`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), cmd, app, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "plan and report without changing the library")
	cmd.Flags().BoolVar(&flags.Overwrite, "overwrite", false, "remove managed tags Sonarr no longer assigns")
	cmd.Flags().StringVar(&flags.Prefix, "prefix", "", "prefix for managed tags (empty manages all tags)")
	cmd.Flags().IntVar(&flags.Concurrency, "concurrency", 0, "library items updated in parallel (1-16)")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "abort the run after this long (default 30m)")
	cmd.Flags().StringVar(&flags.Report, "report", "", "write a markdown report to this file")

	return cmd
}

// Execute runs one sync and prints the result. Unset flags keep the
// configured values.
func Execute(ctx context.Context, cmd *cobra.Command, app application.Application, flags *Flags) error {
	client, err := app.Client()
	if err != nil {
		return err
	}

	g := globals.Parse(cmd)
	warn := alerts.NewWriter(cmd.ErrOrStderr(), g.NoColor, g.Quiet)
	logger := app.Logger()

	status := client.Status()
	prefix, overwrite := status.TagPrefix, status.OverwriteExistingTags

	var opts []runopts.Option
	if cmd.Flags().Changed("dry-run") {
		opts = append(opts, runopts.WithDryRun(flags.DryRun))
	}
	if cmd.Flags().Changed("overwrite") {
		overwrite = flags.Overwrite
		opts = append(opts, runopts.WithOverwriteExistingTags(flags.Overwrite))
	}
	if cmd.Flags().Changed("prefix") {
		prefix = flags.Prefix
		opts = append(opts, runopts.WithTagPrefix(flags.Prefix))
	}
	if cmd.Flags().Changed("concurrency") {
		opts = append(opts, runopts.WithConcurrency(flags.Concurrency))
	}
	if flags.Timeout > 0 {
		opts = append(opts, runopts.WithTimeout(flags.Timeout))
	}

	if overwrite && prefix == "" {
		_ = warn.Write(alerts.NewWarning("Overwrite is enabled with an empty tag prefix").
			WithDetails("Every tag on a matched series is managed; tags Sonarr does not assign will be removed."))
	}

	logger.Debug().Str("prefix", prefix).Bool("overwrite", overwrite).Msg("Starting sync")

	result, runErr := client.Sync(ctx, opts...)
	if result == nil {
		return runErr
	}

	format := output.DetectFormat(app.OutputFormat())
	if err := output.FormatResult(cmd.OutOrStdout(), format, result); err != nil {
		return err
	}

	if flags.Report != "" {
		if err := report.WriteFile(flags.Report, result); err != nil {
			return err
		}
		_ = warn.Write(alerts.NewSuccess("Report written to " + flags.Report))
	}

	if runErr != nil {
		return runErr
	}
	if result.Summary.Failed > 0 {
		_ = warn.Write(alerts.NewWarning(fmt.Sprintf("%d tag operations failed", result.Summary.Failed)))
	}
	return nil
}
