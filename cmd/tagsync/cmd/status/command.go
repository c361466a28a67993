// Package status provides the status command.
package status

import (
	"github.com/spf13/cobra"

	"github.com/ellisd4/tagsync/cmd/application"
	"github.com/ellisd4/tagsync/internal/cmd/output"
)

// NewCommand creates the status command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: "core",
		Short:   "Show configuration and sync status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			format := output.DetectFormat(app.OutputFormat())
			return output.FormatStatus(cmd.OutOrStdout(), format, client.Status())
		},
	}
}
