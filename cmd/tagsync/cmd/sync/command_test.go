package sync_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellisd4/tagsync"
	synccmd "github.com/ellisd4/tagsync/cmd/tagsync/cmd/sync"
	"github.com/ellisd4/tagsync/internal/cmd/application"
	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/catalogs/memory"
	"github.com/ellisd4/tagsync/pkg/errors"
)

func fixtures() (*memory.Source, *memory.Target) {
	source := memory.NewSource(
		[]catalogs.SourceRecord{
			{ID: "1", Title: "Firefly", ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTVDB: "78874"}, TagIDs: []int{1}},
			{ID: "2", Title: "Dark", ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTMDB: "70523"}, TagIDs: []int{2}},
		},
		[]catalogs.TagDefinition{{ID: 1, Label: "hd"}, {ID: 2, Label: "german"}},
	)
	target := memory.NewTarget(
		catalogs.TargetItem{ID: "e1", Name: "Firefly", ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTVDB: "78874"}, Tags: []string{"sonarr-old", "favourite"}},
		catalogs.TargetItem{ID: "e2", Name: "Dark", ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTMDB: "70523"}},
	)
	return source, target
}

type run struct {
	stdout, stderr *bytes.Buffer
	err            error
}

func execute(t *testing.T, client tagsync.Client, args ...string) run {
	t.Helper()
	mock := &application.Mock{
		ClientFunc:       func() (tagsync.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return "json" },
	}
	cmd := synccmd.NewCommand(mock)
	r := run{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	cmd.SetOut(r.stdout)
	cmd.SetErr(r.stderr)
	cmd.SetArgs(args)
	r.err = cmd.ExecuteContext(context.Background())
	return r
}

func newClient(t *testing.T, source catalogs.Source, target catalogs.Target, opts ...tagsync.Option) tagsync.Client {
	t.Helper()
	base := []tagsync.Option{
		tagsync.WithSource(source),
		tagsync.WithTarget(target),
		tagsync.WithTagPrefix("sonarr-"),
		tagsync.WithOverwriteExistingTags(true),
	}
	client, err := tagsync.New(append(base, opts...)...)
	require.NoError(t, err)
	return client
}

func TestSync(t *testing.T) {
	source, target := fixtures()
	r := execute(t, newClient(t, source, target))
	require.NoError(t, r.err)

	var result struct {
		DryRun  bool `json:"dry_run"`
		Summary struct {
			Matched     int `json:"matched"`
			TagsAdded   int `json:"tags_added"`
			TagsRemoved int `json:"tags_removed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(r.stdout.Bytes(), &result))
	assert.False(t, result.DryRun)
	assert.Equal(t, 2, result.Summary.Matched)
	assert.Equal(t, 2, result.Summary.TagsAdded)
	assert.Equal(t, 1, result.Summary.TagsRemoved)

	assert.ElementsMatch(t, []string{"favourite", "sonarr-hd"}, target.Tags("e1"))
	assert.Equal(t, []string{"sonarr-german"}, target.Tags("e2"))
	assert.Empty(t, r.stderr.String())
}

func TestSyncDryRun(t *testing.T) {
	source, target := fixtures()
	r := execute(t, newClient(t, source, target), "--dry-run")
	require.NoError(t, r.err)

	assert.Contains(t, r.stdout.String(), `"dry_run": true`)
	assert.Empty(t, target.Mutations())
}

func TestSyncFlagsOverrideConfig(t *testing.T) {
	source, target := fixtures()
	client := newClient(t, source, target, tagsync.WithDryRun(true))

	r := execute(t, client, "--dry-run=false", "--overwrite=false", "--prefix", "tv-")
	require.NoError(t, r.err)

	assert.ElementsMatch(t, []string{"sonarr-old", "favourite", "tv-hd"}, target.Tags("e1"))
	assert.Equal(t, []string{"tv-german"}, target.Tags("e2"))

	// flags apply to one run only
	status := client.Status()
	assert.Equal(t, "sonarr-", status.TagPrefix)
	assert.True(t, status.DryRun)
}

func TestSyncWarnsWhenAllTagsAreManaged(t *testing.T) {
	source, target := fixtures()
	r := execute(t, newClient(t, source, target), "--prefix", "", "--dry-run")
	require.NoError(t, r.err)

	assert.Contains(t, r.stderr.String(), "Overwrite is enabled with an empty tag prefix")
	assert.Contains(t, r.stdout.String(), "favourite")
}

func TestSyncReport(t *testing.T) {
	source, target := fixtures()
	path := filepath.Join(t.TempDir(), "reports", "sync.md")

	r := execute(t, newClient(t, source, target), "--report", path)
	require.NoError(t, r.err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sonarr-hd")
	assert.Contains(t, r.stderr.String(), "Report written to")
}

func TestSyncErrors(t *testing.T) {
	t.Run("upstream unavailable", func(t *testing.T) {
		source, target := fixtures()
		source.FailFetch(stderrors.New("connection refused"))

		r := execute(t, newClient(t, source, target))
		assert.True(t, errors.IsUpstreamUnavailable(r.err))
		assert.Empty(t, r.stdout.String())
	})

	t.Run("client unavailable", func(t *testing.T) {
		mock := &application.Mock{
			ClientFunc: func() (tagsync.Client, error) {
				return nil, errors.NewConfigError("target", "kind", "must be emby or sqlite, got plex")
			},
		}
		cmd := synccmd.NewCommand(mock)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(nil)
		err := cmd.ExecuteContext(context.Background())
		assert.True(t, errors.IsConfigurationIncomplete(err))
	})

	t.Run("mutation failures are not fatal", func(t *testing.T) {
		source, target := fixtures()
		target.FailMutation("e2", "sonarr-german", stderrors.New("item is locked"))

		r := execute(t, newClient(t, source, target))
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout.String(), "item is locked")
		assert.Contains(t, r.stderr.String(), "1 tag operations failed")
	})

	t.Run("invalid concurrency", func(t *testing.T) {
		source, target := fixtures()
		r := execute(t, newClient(t, source, target), "--concurrency", "99")
		assert.True(t, errors.IsValidationError(r.err))
	})
}
