package sonarr_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellisd4/tagsync/internal/sources/sonarr"
	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/errors"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/series", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[
			{"id": 1, "title": "Firefly", "tvdbId": 78874, "tmdbId": 1437, "imdbId": "tt0303461", "tags": [1, 2]},
			{"id": 2, "title": "Unknown Show", "tvdbId": 0, "tmdbId": 0, "tags": []}
		]`))
	})
	mux.HandleFunc("GET /api/v3/tag", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "label": "hd"}, {"id": 2, "label": "anime"}]`))
	})
	mux.HandleFunc("GET /api/v3/system/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version": "4.0.14.2939", "branch": "main"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"http://sonarr:8989":          "http://sonarr:8989",
		"http://sonarr:8989/":         "http://sonarr:8989",
		"http://sonarr:8989/api/v3":   "http://sonarr:8989",
		"http://sonarr:8989/API/V3/":  "http://sonarr:8989",
		" http://host/sonarr/api/v3 ": "http://host/sonarr",
	}
	for in, want := range tests {
		assert.Equal(t, want, sonarr.NormalizeURL(in), in)
	}
}

func TestFetchRecords(t *testing.T) {
	srv := newServer(t)
	c := sonarr.New(sonarr.Config{URL: srv.URL + "/api/v3/", APIKey: "secret"})

	records, err := c.FetchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "Firefly", records[0].Title)
	assert.Equal(t, []int{1, 2}, records[0].TagIDs)
	assert.Equal(t, catalogs.ExternalIDs{
		catalogs.SchemeTVDB: "78874",
		catalogs.SchemeTMDB: "1437",
		catalogs.SchemeIMDB: "tt0303461",
	}, records[0].ExternalIDs)

	assert.False(t, records[1].HasIdentifier(catalogs.DefaultSchemes()))
}

func TestFetchTagDictionary(t *testing.T) {
	srv := newServer(t)
	c := sonarr.New(sonarr.Config{URL: srv.URL, APIKey: "secret"})

	dict, err := c.FetchTagDictionary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalogs.TagDictionary{1: "hd", 2: "anime"}, dict)
}

func TestPing(t *testing.T) {
	srv := newServer(t)
	version, err := sonarr.New(sonarr.Config{URL: srv.URL, APIKey: "secret"}).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4.0.14.2939", version)
}

func TestRejectedCredentials(t *testing.T) {
	srv := newServer(t)
	_, err := sonarr.New(sonarr.Config{URL: srv.URL, APIKey: "wrong"}).FetchRecords(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsUpstreamUnavailable(err))

	var upstream *errors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.True(t, upstream.CredentialsRejected())
	assert.Equal(t, "/api/v3/series", upstream.Endpoint)
}

func TestUnreachable(t *testing.T) {
	srv := newServer(t)
	url := srv.URL
	srv.Close()

	_, err := sonarr.New(sonarr.Config{URL: url, APIKey: "secret"}).FetchTagDictionary(context.Background())
	assert.True(t, errors.IsUpstreamUnavailable(err))
}

func TestValidate(t *testing.T) {
	err := sonarr.New(sonarr.Config{APIKey: "k"}).Validate()
	assert.True(t, errors.IsConfigurationIncomplete(err))

	err = sonarr.New(sonarr.Config{URL: "http://sonarr"}).Validate()
	assert.True(t, errors.IsConfigurationIncomplete(err))

	_, err = sonarr.New(sonarr.Config{}).FetchRecords(context.Background())
	assert.True(t, errors.IsConfigurationIncomplete(err))
	assert.False(t, errors.IsUpstreamUnavailable(err))
}
