package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/catalogs/memory"
	pkgerrors "github.com/ellisd4/tagsync/pkg/errors"
)

func TestTargetMutations(t *testing.T) {
	ctx := context.Background()
	target := memory.NewTarget(catalogs.TargetItem{
		ID:   "1",
		Name: "Firefly",
		Tags: []string{"Sonarr-HD"},
	})

	t.Run("add is idempotent and case-insensitive", func(t *testing.T) {
		require.NoError(t, target.AddTag(ctx, "1", "sonarr-hd"))
		require.NoError(t, target.AddTag(ctx, "1", "sonarr-anime"))
		assert.Equal(t, []string{"Sonarr-HD", "sonarr-anime"}, target.Tags("1"))
	})

	t.Run("remove absent tag succeeds", func(t *testing.T) {
		require.NoError(t, target.RemoveTag(ctx, "1", "sonarr-missing"))
		require.NoError(t, target.RemoveTag(ctx, "1", "SONARR-hd"))
		assert.Equal(t, []string{"sonarr-anime"}, target.Tags("1"))
	})

	t.Run("unknown item", func(t *testing.T) {
		err := target.AddTag(ctx, "nope", "x")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("injected failure", func(t *testing.T) {
		boom := errors.New("locked")
		target.FailMutation("1", "sonarr-x", boom)
		assert.ErrorIs(t, target.AddTag(ctx, "1", "Sonarr-X"), boom)
		target.FailMutation("1", "sonarr-x", nil)
		assert.NoError(t, target.AddTag(ctx, "1", "sonarr-x"))
	})

	assert.Len(t, target.Mutations(), 7)
}

func TestTargetSnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	target := memory.NewTarget(catalogs.TargetItem{ID: "1", Tags: []string{"a"}})

	items, err := target.FetchItems(ctx)
	require.NoError(t, err)
	items[0].Tags[0] = "mutated"

	require.NoError(t, target.AddTag(ctx, "1", "b"))
	assert.Equal(t, []string{"a", "b"}, target.Tags("1"))
	assert.Equal(t, []string{"mutated"}, items[0].Tags)
}

func TestFailFetch(t *testing.T) {
	ctx := context.Background()

	source := memory.NewSource(nil, nil)
	source.FailFetch(errors.New("connection refused"))
	_, err := source.FetchRecords(ctx)
	assert.True(t, pkgerrors.IsUpstreamUnavailable(err))
	_, err = source.FetchTagDictionary(ctx)
	assert.True(t, pkgerrors.IsUpstreamUnavailable(err))

	target := memory.NewTarget()
	target.FailFetch(errors.New("disk gone"))
	_, err = target.FetchItems(ctx)
	assert.True(t, pkgerrors.IsCatalogUnavailable(err))
}
