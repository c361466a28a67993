// Package test provides the connection test command.
package test

import (
	"github.com/spf13/cobra"

	"github.com/ellisd4/tagsync/cmd/application"
	"github.com/ellisd4/tagsync/internal/cmd/output"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// NewCommand creates the test command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "test",
		GroupID: "core",
		Short:   "Test the Sonarr and library connections",
		Args:    cobra.NoArgs,
		Long: `Test contacts Sonarr and the library, reporting each one's version
and how many series it holds. Nothing is changed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			report, err := client.TestConnection(cmd.Context())
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			if err := output.FormatConnection(cmd.OutOrStdout(), format, report); err != nil {
				return err
			}
			if !report.Success {
				return errors.New(report.Message)
			}
			return nil
		},
	}
}
