package app

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/ellisd4/tagsync/cmd/tagsync/cmd/library"
	"github.com/ellisd4/tagsync/cmd/tagsync/cmd/serve"
	"github.com/ellisd4/tagsync/cmd/tagsync/cmd/status"
	synccmd "github.com/ellisd4/tagsync/cmd/tagsync/cmd/sync"
	testcmd "github.com/ellisd4/tagsync/cmd/tagsync/cmd/test"
	"github.com/ellisd4/tagsync/pkg/constants"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(synccmd.NewCommand(a))
	rootCmd.AddCommand(testcmd.NewCommand(a))
	rootCmd.AddCommand(status.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a))
	rootCmd.AddCommand(library.NewCommand(a))

	rootCmd.AddCommand(a.newVersionCommand())
	rootCmd.AddCommand(a.newManCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("tagsync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}

// newManCommand creates the hidden man page generator.
func (a *App) newManCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:    "man",
		Short:  "Generate man pages",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			header := &doc.GenManHeader{
				Title:   "TAGSYNC",
				Section: "1",
				Source:  "tagsync " + a.version,
				Manual:  "tagsync Manual",
			}
			root := cmd.Root()
			root.DisableAutoGenTag = true
			if dir != "" {
				if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
					return err
				}
				return doc.GenManTree(root, header, dir)
			}
			return doc.GenMan(root, header, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "write one page per command into this directory")
	return cmd
}
