// Package library provides commands that seed the local SQLite library
// used when target.kind is sqlite.
package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/ellisd4/tagsync/cmd/application"
	"github.com/ellisd4/tagsync/internal/cmd/alerts"
	"github.com/ellisd4/tagsync/internal/cmd/globals"
	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// File is the document read by `library import`. JSON is accepted as well.
//
//	items:
//	  - id: "101"
//	    name: Firefly
//	    external_ids: {tvdb: "78874"}
//	    tags: [favourite]
type File struct {
	Items []catalogs.TargetItem `yaml:"items" json:"items"`
}

// ImportFlags holds the import command flags.
type ImportFlags struct {
	Prune bool
}

// NewCommand creates the library command and its subcommands.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		GroupID: "core",
		Short:   "Manage the local SQLite library",
		Long: `Library commands write series into the SQLite database used when
target.kind is sqlite. Sync then reconciles Sonarr tags against those items
exactly as it does against Emby.`,
		Args: cobra.NoArgs,
	}
	cmd.AddCommand(newImportCommand(app))
	cmd.AddCommand(newRemoveCommand(app))
	return cmd
}

func newImportCommand(app application.Application) *cobra.Command {
	flags := &ImportFlags{}
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Insert or replace library items from a YAML or JSON file",
		Long: `Import inserts every item of FILE, replacing the identifiers and tags of
items that already exist. Use "-" to read from stdin.

With --prune, library items that are not in FILE are deleted.`,
		Example: `  tagsync library import series.yaml
  emby-export | tagsync library import - --prune`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Import(cmd.Context(), cmd, app, args[0], flags)
		},
	}
	cmd.Flags().BoolVar(&flags.Prune, "prune", false, "delete library items missing from the file")
	return cmd
}

func newRemoveCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID...",
		Aliases: []string{"rm"},
		Short:   "Delete library items by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := app.Library()
			if err != nil {
				return err
			}
			g := globals.Parse(cmd)
			for _, id := range args {
				if err := lib.DeleteItem(cmd.Context(), id); err != nil {
					return err
				}
			}
			_ = alerts.NewWriter(cmd.ErrOrStderr(), g.NoColor, g.Quiet).
				Write(alerts.NewSuccess(fmt.Sprintf("Removed %d items", len(args))))
			return nil
		},
	}
}

// Import reads path (or stdin for "-") and writes its items to the library.
func Import(ctx context.Context, cmd *cobra.Command, app application.Application, path string, flags *ImportFlags) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	items, err := Parse(data)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	lib, err := app.Library()
	if err != nil {
		return err
	}
	logger := app.Logger()

	keep := make(map[string]bool, len(items))
	for _, item := range items {
		if err := lib.PutItem(ctx, item); err != nil {
			return err
		}
		keep[item.ID] = true
	}

	var pruned int
	if flags.Prune {
		existing, err := lib.FetchItems(ctx)
		if err != nil {
			return err
		}
		for _, item := range existing {
			if keep[item.ID] {
				continue
			}
			if err := lib.DeleteItem(ctx, item.ID); err != nil && !errors.IsNotFound(err) {
				return err
			}
			pruned++
		}
	}

	logger.Debug().Int("imported", len(items)).Int("pruned", pruned).Msg("Library import complete")

	g := globals.Parse(cmd)
	msg := fmt.Sprintf("Imported %d items", len(items))
	if flags.Prune {
		msg += fmt.Sprintf(", pruned %d", pruned)
	}
	_ = alerts.NewWriter(cmd.ErrOrStderr(), g.NoColor, g.Quiet).Write(alerts.NewSuccess(msg))
	return nil
}

// Parse decodes an import document. Every item needs an id and ids must be
// unique.
func Parse(data []byte) ([]catalogs.TargetItem, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(file.Items))
	for i, item := range file.Items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d].id", i), item.ID, "must be set")
		}
		if seen[id] {
			return nil, errors.NewValidationError(fmt.Sprintf("items[%d].id", i), item.ID, "duplicate id")
		}
		seen[id] = true
		file.Items[i].ID = id
	}
	return file.Items, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.WrapIO("read", "stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return data, nil
}
