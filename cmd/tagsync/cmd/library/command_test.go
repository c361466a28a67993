package library_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellisd4/tagsync"
	cmdapp "github.com/ellisd4/tagsync/cmd/application"
	"github.com/ellisd4/tagsync/cmd/tagsync/cmd/library"
	"github.com/ellisd4/tagsync/internal/cmd/application"
	"github.com/ellisd4/tagsync/internal/targets/sqlite"
	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/catalogs/memory"
	"github.com/ellisd4/tagsync/pkg/errors"
)

const seed = `items:
  - id: "101"
    name: Firefly
    external_ids:
      tvdb: "78874"
    tags: [favourite]
  - id: "102"
    name: Dark
    external_ids:
      TMDB: "70523"
`

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(sqlite.Config{Path: filepath.Join(t.TempDir(), "library.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type run struct {
	stderr *bytes.Buffer
	err    error
}

func execute(t *testing.T, store *sqlite.Store, stdin string, args ...string) run {
	t.Helper()
	mock := &application.Mock{
		LibraryFunc: func() (cmdapp.Library, error) { return store, nil },
	}
	cmd := library.NewCommand(mock)
	r := run{stderr: &bytes.Buffer{}}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(r.stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	r.err = cmd.ExecuteContext(context.Background())
	return r
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImport(t *testing.T) {
	store := openStore(t)

	r := execute(t, store, "", "import", writeFile(t, seed))
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr.String(), "Imported 2 items")

	items, err := store.FetchItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Firefly", items[0].Name)
	assert.Equal(t, []string{"favourite"}, items[0].Tags)
	id, ok := items[1].ExternalIDs.Get(catalogs.SchemeTMDB)
	require.True(t, ok)
	assert.Equal(t, "70523", id)
}

func TestImportThenSync(t *testing.T) {
	store := openStore(t)
	require.NoError(t, execute(t, store, seed, "import", "-").err)

	source := memory.NewSource(
		[]catalogs.SourceRecord{
			{ID: "1", Title: "Firefly", ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTVDB: "78874"}, TagIDs: []int{1}},
		},
		[]catalogs.TagDefinition{{ID: 1, Label: "hd"}},
	)
	client, err := tagsync.New(
		tagsync.WithSource(source),
		tagsync.WithTarget(store),
		tagsync.WithTagPrefix("sonarr-"),
	)
	require.NoError(t, err)

	result, err := client.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Matched)
	assert.Equal(t, 1, result.Summary.TagsAdded)

	items, err := store.FetchItems(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"favourite", "sonarr-hd"}, items[0].Tags)
}

func TestImportReplacesAndPrunes(t *testing.T) {
	store := openStore(t)
	require.NoError(t, execute(t, store, seed, "import", "-").err)

	update := `items:
  - id: "101"
    name: Firefly
    external_ids: {tvdb: "78874"}
    tags: [classic]
`
	r := execute(t, store, update, "import", "-", "--prune")
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr.String(), "pruned 1")

	items, err := store.FetchItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "101", items[0].ID)
	assert.Equal(t, []string{"classic"}, items[0].Tags)
}

func TestRemove(t *testing.T) {
	store := openStore(t)
	require.NoError(t, execute(t, store, seed, "import", "-").err)

	r := execute(t, store, "", "remove", "102")
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr.String(), "Removed 1 items")

	r = execute(t, store, "", "rm", "999")
	assert.True(t, errors.IsNotFound(r.err))
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{"missing id", "items:\n  - name: Firefly\n", errors.IsValidationError},
		{"duplicate id", "items:\n  - id: a\n  - id: ' a '\n", errors.IsValidationError},
		{"malformed", "items: [\n", func(err error) bool {
			var parseErr *errors.ParseError
			return errors.As(err, &parseErr)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, openStore(t), tt.input, "import", "-")
			require.Error(t, r.err)
			assert.True(t, tt.check(r.err), r.err.Error())
		})
	}
}

func TestImportWithoutLibrary(t *testing.T) {
	cmd := library.NewCommand(&application.Mock{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(seed))
	cmd.SetArgs([]string{"import", "-"})

	err := cmd.ExecuteContext(context.Background())
	assert.True(t, errors.IsConfigurationIncomplete(err))
}
