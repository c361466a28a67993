package matcher_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/matcher"
)

func record(tvdb, tmdb string) catalogs.SourceRecord {
	return catalogs.SourceRecord{
		ID:          "s1",
		Title:       "Firefly",
		ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTVDB: tvdb, catalogs.SchemeTMDB: tmdb},
	}
}

func item(id string, ids catalogs.ExternalIDs) catalogs.TargetItem {
	return catalogs.TargetItem{ID: id, Name: "item " + id, ExternalIDs: ids}
}

// matchBoth runs the linear matcher and the index and requires they agree.
func matchBoth(t *testing.T, r catalogs.SourceRecord, items []catalogs.TargetItem) (matcher.Result, bool) {
	t.Helper()
	linear, okLinear := matcher.Match(r, items, nil)
	indexed, okIndexed := matcher.NewIndex(items, nil).Match(r)
	require.Equal(t, okLinear, okIndexed)
	require.Equal(t, linear, indexed)
	return linear, okLinear
}

func TestPrimaryBeforeSecondary(t *testing.T) {
	items := []catalogs.TargetItem{
		item("by-tmdb", catalogs.ExternalIDs{"Tmdb": "200"}),
		item("by-tvdb", catalogs.ExternalIDs{"Tvdb": "100"}),
	}

	got, ok := matchBoth(t, record("100", "200"), items)
	require.True(t, ok)
	assert.Equal(t, "by-tvdb", got.Item.ID)
	assert.Equal(t, catalogs.SchemeTVDB, got.Scheme)
	assert.Equal(t, 1, got.Position)
}

func TestSecondaryFallback(t *testing.T) {
	items := []catalogs.TargetItem{
		item("a", catalogs.ExternalIDs{"Tvdb": "999"}),
		item("b", catalogs.ExternalIDs{"Tmdb": "200"}),
	}

	got, ok := matchBoth(t, record("100", "200"), items)
	require.True(t, ok)
	assert.Equal(t, "b", got.Item.ID)
	assert.Equal(t, catalogs.SchemeTMDB, got.Scheme)
}

func TestSchemeMustAgree(t *testing.T) {
	// A tvdb value never matches the same number stored as tmdb.
	items := []catalogs.TargetItem{item("a", catalogs.ExternalIDs{"Tmdb": "100"})}

	_, ok := matchBoth(t, record("100", ""), items)
	assert.False(t, ok)
}

func TestFirstInInputOrderWins(t *testing.T) {
	items := []catalogs.TargetItem{
		item("first", catalogs.ExternalIDs{"tvdb": "100"}),
		item("second", catalogs.ExternalIDs{"TVDB": "100"}),
	}

	got, ok := matchBoth(t, record("100", ""), items)
	require.True(t, ok)
	assert.Equal(t, "first", got.Item.ID)
}

func TestNoUsableIdentifier(t *testing.T) {
	items := []catalogs.TargetItem{
		item("zero", catalogs.ExternalIDs{"Tvdb": "0", "Tmdb": "0"}),
		item("blank", catalogs.ExternalIDs{"Tvdb": "", "Tmdb": ""}),
	}

	for _, r := range []catalogs.SourceRecord{record("0", "0"), record("", ""), record("-1", " ")} {
		t.Run(fmt.Sprintf("%v", r.ExternalIDs), func(t *testing.T) {
			_, ok := matchBoth(t, r, items)
			assert.False(t, ok)
		})
	}
}

func TestCaseInsensitiveValues(t *testing.T) {
	items := []catalogs.TargetItem{item("a", catalogs.ExternalIDs{"Imdb": "TT0303461"})}
	r := catalogs.SourceRecord{ExternalIDs: catalogs.ExternalIDs{"imdb": " tt0303461 "}}

	got, ok := matcher.Match(r, items, []catalogs.Scheme{catalogs.SchemeIMDB})
	require.True(t, ok)
	assert.Equal(t, "a", got.Item.ID)

	ix := matcher.NewIndex(items, []catalogs.Scheme{"IMDB"})
	assert.Equal(t, []catalogs.Scheme{catalogs.SchemeIMDB}, ix.Schemes())
	_, ok = ix.Match(r)
	assert.True(t, ok)
}

func TestEmptyTargets(t *testing.T) {
	_, ok := matchBoth(t, record("100", "200"), nil)
	assert.False(t, ok)
	assert.Equal(t, 0, matcher.NewIndex(nil, nil).Len())
}
