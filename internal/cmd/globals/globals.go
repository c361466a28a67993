// Package globals provides the persistent flags shared by every command.
package globals

import "github.com/spf13/cobra"

// Flags holds global common flags across all commands.
type Flags struct {
	ConfigFile string
	Format     string
	LogLevel   string
	Quiet      bool
	Verbose    bool
	NoColor    bool
}

// AddFlags registers the persistent flags on the root command.
func AddFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}

	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "",
		"config file (default is $HOME/.tagsync.yaml)")
	cmd.PersistentFlags().StringVarP(&flags.Format, "format", "o", "",
		"output format: table, json, yaml")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "",
		"log level: trace, debug, info, warn, error (overrides -v/-q)")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false,
		"minimal output (shortcut for --log-level=warn)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false,
		"verbose output (shortcut for --log-level=debug)")
	cmd.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false,
		"disable colored output")

	return flags
}

// Parse extracts global flags from the command hierarchy, for subcommands
// that were not handed the Flags value directly.
func Parse(cmd *cobra.Command) *Flags {
	root := cmd.Root()

	configFile, _ := root.PersistentFlags().GetString("config")
	format, _ := root.PersistentFlags().GetString("format")
	logLevel, _ := root.PersistentFlags().GetString("log-level")
	quiet, _ := root.PersistentFlags().GetBool("quiet")
	verbose, _ := root.PersistentFlags().GetBool("verbose")
	noColor, _ := root.PersistentFlags().GetBool("no-color")

	return &Flags{
		ConfigFile: configFile,
		Format:     format,
		LogLevel:   logLevel,
		Quiet:      quiet,
		Verbose:    verbose,
		NoColor:    noColor,
	}
}
